package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
)

func setupTestEmployeeService() (EmployeeService, *mockEmployeeRepo) {
	repo, _, _, empRepo := newMockRepository()
	return NewEmployeeService(repo, zap.NewNop()), empRepo
}

func TestEmployeeService_CreateAndList(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: " Luis Gómez ", RaicColor: "Verde", Email: "luis@example.com"})
	if err != nil {
		t.Fatalf("创建员工应成功: %v", err)
	}
	if created.FullName != "Luis Gómez" || created.RaicColor != "verde" || !created.IsActive {
		t.Errorf("员工字段应被规范化: %+v", created)
	}

	_, _ = svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Ana Pérez", RaicColor: "rojo", Email: "ana@example.com"})

	list, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("查询名册应成功: %v", err)
	}
	if len(list) != 2 || list[0].FullName != "Ana Pérez" {
		t.Errorf("名册应按姓名排序: %+v", list)
	}
}

func TestEmployeeService_Uniqueness(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()

	first, _ := svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Luis Gómez", RaicColor: "verde", Email: "luis@example.com"})

	_, err := svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "luis gómez", RaicColor: "verde", Email: "otro@example.com"})
	if !errors.Is(err, ErrEmployeeNameTaken) {
		t.Errorf("期望 ErrEmployeeNameTaken，实际: %v", err)
	}
	_, err = svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Otro", RaicColor: "verde", Email: "LUIS@example.com"})
	if !errors.Is(err, ErrEmployeeEmailTaken) {
		t.Errorf("期望 ErrEmployeeEmailTaken，实际: %v", err)
	}

	// 停用后姓名与邮箱可被复用
	if err := svc.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("停用应成功: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Luis Gómez", RaicColor: "verde", Email: "luis@example.com"}); err != nil {
		t.Errorf("停用后重新创建应成功: %v", err)
	}
}

func TestEmployeeService_Update(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Ana Pérez", RaicColor: "verde", Email: "ana@example.com"})
	_, _ = svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Luis Gómez", RaicColor: "verde", Email: "luis@example.com"})

	// 保留自身姓名不算冲突
	updated, err := svc.Update(ctx, a.ID, &dto.UpdateEmployeeRequest{FullName: "Ana Pérez", RaicColor: "rojo", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	if updated.RaicColor != "rojo" {
		t.Errorf("期望 rojo，实际: %s", updated.RaicColor)
	}

	_, err = svc.Update(ctx, a.ID, &dto.UpdateEmployeeRequest{FullName: "Luis Gómez", RaicColor: "rojo", Email: "ana@example.com"})
	if !errors.Is(err, ErrEmployeeNameTaken) {
		t.Errorf("期望 ErrEmployeeNameTaken，实际: %v", err)
	}

	_, err = svc.Update(ctx, "missing", &dto.UpdateEmployeeRequest{FullName: "X", RaicColor: "verde", Email: "x@example.com"})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
}

func TestEmployeeService_DeactivateMissing(t *testing.T) {
	svc, _ := setupTestEmployeeService()

	if err := svc.Deactivate(context.Background(), "missing"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
}

// ── ImportRoster 测试 ──

func TestEmployeeService_ImportRoster(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, &dto.CreateEmployeeRequest{FullName: "Ana Pérez", RaicColor: "verde", Email: "ana@example.com"})

	roster := `
employees:
  - full_name: Luis Gómez
    raic_color: verde
    email: luis@example.com
  - full_name: Ana Pérez
    raic_color: rojo
    email: ana.perez@example.com
  - full_name: Marta Ruiz
    raic_color: rojo
    email: marta@example.com
`
	result, err := svc.ImportRoster(ctx, strings.NewReader(roster))
	if err != nil {
		t.Fatalf("导入应成功: %v", err)
	}
	if result.Created != 2 {
		t.Errorf("期望新增 2 人，实际: %d", result.Created)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "Ana Pérez" {
		t.Errorf("同名员工应被跳过: %+v", result.Skipped)
	}
}

func TestEmployeeService_ImportRoster_Invalid(t *testing.T) {
	svc, _ := setupTestEmployeeService()

	tests := []struct {
		name   string
		roster string
	}{
		{"YAML 语法错误", "employees: [\n"},
		{"空名册", "employees: []\n"},
		{"邮箱无效", "employees:\n  - full_name: Luis\n    raic_color: verde\n    email: not-an-email\n"},
		{"缺少颜色", "employees:\n  - full_name: Luis\n    email: luis@example.com\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportRoster(context.Background(), strings.NewReader(tt.roster))
			if !errors.Is(err, ErrInvalidRoster) {
				t.Errorf("期望 ErrInvalidRoster，实际: %v", err)
			}
		})
	}
}

func TestEmployeeService_NonUUIDIsNotFound(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()

	_, err := svc.Update(ctx, "abc", &dto.UpdateEmployeeRequest{FullName: "X", RaicColor: "verde", Email: "x@example.com"})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
	if err := svc.Deactivate(ctx, "abc"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
	// 格式合法但不存在
	if err := svc.Deactivate(ctx, "6f1c2a4e-8b7d-4c3e-9a1f-2b3c4d5e6f70"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
}
