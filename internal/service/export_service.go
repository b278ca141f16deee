package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("没有符合条件的换班记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportHistory 按历史查询条件导出全部记录（忽略分页）
	ExportHistory(ctx context.Context, filter *dto.HistoryFilter) (*bytes.Buffer, string, error)
}

type exportService struct {
	requests ShiftRequestService
	resolver *shiftclock.Resolver
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(requests ShiftRequestService, resolver *shiftclock.Resolver, logger *zap.Logger) ExportService {
	return &exportService{requests: requests, resolver: resolver, logger: logger}
}

// 表头: | 班次日期 | 航班 | 时间 | 申请人 | 接替人 | 阶段 | 接受时间 | 主管 | 决定时间 | 备注 |
var historyHeaders = []string{
	"Fecha del turno", "Vuelo", "Horario", "Solicitante", "Cobertura",
	"Estado", "Aceptado", "Supervisor", "Decidido", "Comentarios",
}

// exportPageSize 导出时逐页读取，避免单次查询过大
const exportPageSize = 100

// ═══════════════════════════════════════════════════════════
// ExportHistory 导出换班历史为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportHistory(ctx context.Context, filter *dto.HistoryFilter) (*bytes.Buffer, string, error) {
	// 1. 读取全部符合条件的记录
	f := dto.HistoryFilter{}
	if filter != nil {
		f = *filter
	}
	f.PageSize = exportPageSize

	var records []dto.ShiftRequestResponse
	for page := 1; ; page++ {
		f.Page = page
		list, total, err := s.requests.ListHistory(ctx, &f)
		if err != nil {
			return nil, "", err
		}
		records = append(records, list...)
		if len(list) == 0 || int64(len(records)) >= total {
			break
		}
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	// 2. 生成 Excel
	file := excelize.NewFile()
	defer file.Close()

	sheetName := "Historial"
	idx, _ := file.NewSheet(sheetName)
	file.SetActiveSheet(idx)
	// 删除默认 Sheet1
	file.DeleteSheet("Sheet1")

	// 设置列宽
	widths := []float64{20, 14, 16, 22, 22, 16, 28, 18, 28, 40}
	for i, w := range widths {
		col := colName(i + 1)
		file.SetColWidth(sheetName, col, col, w)
	}

	// 样式
	headerStyle, _ := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C00000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	for i, h := range historyHeaders {
		file.SetCellValue(sheetName, cell(colName(i+1), 1), h)
	}
	file.SetCellStyle(sheetName, "A1", cell(colName(len(historyHeaders)), 1), headerStyle)
	file.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	// 数据行
	for i, r := range records {
		row := i + 2
		values := []interface{}{
			s.dateLabel(r.ShiftDate),
			r.FlightNumber,
			r.Window.Display,
			r.RequesterName + " (" + r.RequesterBadge + ")",
			r.CoverName + " (" + r.CoverBadge + ")",
			r.Phase,
			s.timeLabel(r.CoverAcceptedAt),
			r.SupervisorName,
			s.timeLabel(r.SupervisorDecidedAt),
			r.SupervisorComments,
		}
		for j, v := range values {
			file.SetCellValue(sheetName, cell(colName(j+1), row), v)
		}
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := file.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := "historial_cambios_turno.xlsx"
	if filter != nil && (filter.From != "" || filter.To != "") {
		filename = fmt.Sprintf("historial_cambios_turno_%s_%s.xlsx", orAll(filter.From), orAll(filter.To))
	}

	s.logger.Info("换班历史已导出", zap.Int("records", len(records)))
	return buf, filename, nil
}

func (s *exportService) dateLabel(date string) string {
	d, err := shiftclock.ParseDate(date)
	if err != nil {
		return date
	}
	return shiftclock.FormatDate(d)
}

// timeLabel 将 RFC3339 UTC 时间转为参考时区显示
func (s *exportService) timeLabel(ts string) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return s.resolver.FormatDateTime(t)
}

func orAll(s string) string {
	if s == "" {
		return "todo"
	}
	return s
}

// colName 列号转列名（1 → A）
func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

// cell 组合单元格坐标
func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
