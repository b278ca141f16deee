package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
)

// ErrInvalidRoster 名册文件无法解析或字段不合法
var ErrInvalidRoster = errors.New("员工名册文件无效")

// EmployeeService 员工名册业务接口
type EmployeeService interface {
	// ListActive 在职员工，供申请表下拉选择
	ListActive(ctx context.Context) ([]dto.EmployeeResponse, error)
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	// Deactivate 软删除
	Deactivate(ctx context.Context, id string) error
	// ImportRoster 从 YAML 导入名册，冲突条目跳过而非中断
	ImportRoster(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type employeeService struct {
	repo     *repository.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, validate: validator.New(), logger: logger}
}

func (s *employeeService) ListActive(ctx context.Context) ([]dto.EmployeeResponse, error) {
	list, err := s.repo.Employee.List(ctx, true)
	if err != nil {
		s.logger.Error("查询员工名册失败", zap.Error(err))
		return nil, storageError("list_employees", err)
	}
	result := make([]dto.EmployeeResponse, 0, len(list))
	for i := range list {
		result = append(result, toEmployeeResponse(&list[i]))
	}
	return result, nil
}

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp := &model.Employee{
		FullName:  strings.TrimSpace(req.FullName),
		RaicColor: strings.ToLower(strings.TrimSpace(req.RaicColor)),
		Email:     strings.TrimSpace(req.Email),
		IsActive:  true,
	}
	if err := s.checkUnique(ctx, emp.FullName, emp.Email, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, storageError("create_employee", err)
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if !validEmployeeID(id) {
		return nil, ErrEmployeeNotFound
	}
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, storageError("get_employee", err)
	}

	emp.FullName = strings.TrimSpace(req.FullName)
	emp.RaicColor = strings.ToLower(strings.TrimSpace(req.RaicColor))
	emp.Email = strings.TrimSpace(req.Email)

	if emp.IsActive {
		if err := s.checkUnique(ctx, emp.FullName, emp.Email, emp.EmployeeID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Employee.Update(ctx, emp); err != nil {
		s.logger.Error("更新员工失败", zap.String("employee_id", id), zap.Error(err))
		return nil, storageError("update_employee", err)
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *employeeService) Deactivate(ctx context.Context, id string) error {
	if !validEmployeeID(id) {
		return ErrEmployeeNotFound
	}
	if err := s.repo.Employee.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmployeeNotFound
		}
		return storageError("deactivate_employee", err)
	}
	s.logger.Info("员工已停用", zap.String("employee_id", id))
	return nil
}

// validEmployeeID 主键为 UUID 列
func validEmployeeID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ═══════════════════════════════════════════════════════════
// ImportRoster YAML 名册导入
// ═══════════════════════════════════════════════════════════
//
// 文件格式：
//
//	employees:
//	  - full_name: Ana Pérez
//	    raic_color: verde
//	    email: ana@example.com

func (s *employeeService) ImportRoster(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	var roster dto.EmployeeRoster
	if err := yaml.NewDecoder(r).Decode(&roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	if err := s.validate.Struct(&roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	result := &dto.ImportResult{}
	for i := range roster.Employees {
		entry := roster.Employees[i]
		_, err := s.Create(ctx, &entry)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrEmployeeNameTaken), errors.Is(err, ErrEmployeeEmailTaken):
			result.Skipped = append(result.Skipped, entry.FullName)
			s.logger.Warn("名册条目冲突，已跳过", zap.String("full_name", entry.FullName), zap.Error(err))
		default:
			return result, err
		}
	}

	s.logger.Info("员工名册导入完成",
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *employeeService) checkUnique(ctx context.Context, name, email, excludeID string) error {
	nameTaken, emailTaken, err := s.repo.Employee.ActiveConflicts(ctx, name, email, excludeID)
	if err != nil {
		return storageError("check_employee_conflicts", err)
	}
	if nameTaken {
		return ErrEmployeeNameTaken
	}
	if emailTaken {
		return ErrEmployeeEmailTaken
	}
	return nil
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:        e.EmployeeID,
		FullName:  e.FullName,
		RaicColor: e.RaicColor,
		Email:     e.Email,
		IsActive:  e.IsActive,
	}
}
