package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService(t *testing.T) (ExportService, *workflowFixture) {
	f := setupWorkflow(t)
	return NewExportService(f.svc, f.resolver, zap.NewNop()), f
}

// ── ExportHistory 测试 ──

func TestExportService_ExportHistory_NoRecords(t *testing.T) {
	svc, _ := setupTestExportService(t)

	_, _, err := svc.ExportHistory(context.Background(), nil)
	if !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("期望 ErrExportNoRecords，实际: %v", err)
	}
}

func TestExportService_ExportHistory_Rows(t *testing.T) {
	svc, f := setupTestExportService(t)
	ctx := context.Background()

	id := f.createAccepted(t)
	if _, err := f.svc.Decide(ctx, id, model.StatusApproved, &dto.DecisionRequest{Comments: "OK"}, "Carla"); err != nil {
		t.Fatalf("批准应成功: %v", err)
	}
	later := validRequest()
	later.ShiftDate = "2025-06-15"
	later.FlightNumber = "AV627"
	if _, err := f.svc.Create(ctx, later); err != nil {
		t.Fatalf("创建申请应成功: %v", err)
	}

	buf, filename, err := svc.ExportHistory(ctx, &dto.HistoryFilter{From: "2025-06-01"})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "historial_cambios_turno_2025-06-01_todo.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	file, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可读取: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Historial")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际: %d", len(rows))
	}
	if rows[0][0] != "Fecha del turno" {
		t.Errorf("表头错误: %v", rows[0])
	}
	if rows[1][0] != "2025-06-01 (Domingo)" || rows[1][1] != "AV205" || rows[1][5] != "approved" {
		t.Errorf("第一行错误: %v", rows[1])
	}
	if rows[1][7] != "Carla" || rows[1][9] != "OK" {
		t.Errorf("审批列错误: %v", rows[1])
	}
	if rows[2][1] != "AV627" || rows[2][5] != "pending" {
		t.Errorf("第二行错误: %v", rows[2])
	}
}

func TestExportService_ExportHistory_PropagatesFilterError(t *testing.T) {
	svc, _ := setupTestExportService(t)

	_, _, err := svc.ExportHistory(context.Background(), &dto.HistoryFilter{From: "junio"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("期望 ValidationError，实际: %v", err)
	}
}
