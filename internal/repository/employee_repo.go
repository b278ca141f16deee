package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
)

// EmployeeRepository 员工名册数据访问接口
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	// List active=true 返回在职员工，false 返回已停用员工；均按姓名排序
	List(ctx context.Context, active bool) ([]model.Employee, error)
	// ActiveConflicts 检查在职员工中姓名 / 邮箱是否已被占用，excludeID 用于更新时排除自身
	ActiveConflicts(ctx context.Context, fullName, email, excludeID string) (nameTaken, emailTaken bool, err error)
	Update(ctx context.Context, emp *model.Employee) error
	SetActive(ctx context.Context, id string, active bool) error
}

// employeeRepo EmployeeRepository 的 GORM 实现
type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, emp *model.Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) List(ctx context.Context, active bool) ([]model.Employee, error) {
	var list []model.Employee
	err := r.db.WithContext(ctx).
		Where("is_active = ?", active).
		Order("full_name ASC").
		Find(&list).Error
	return list, err
}

func (r *employeeRepo) ActiveConflicts(ctx context.Context, fullName, email, excludeID string) (bool, bool, error) {
	count := func(column, value string) (int64, error) {
		var n int64
		q := r.db.WithContext(ctx).
			Model(&model.Employee{}).
			Where("is_active = ?", true).
			Where("LOWER("+column+") = ?", strings.ToLower(strings.TrimSpace(value)))
		if excludeID != "" {
			q = q.Where("employee_id <> ?", excludeID)
		}
		err := q.Count(&n).Error
		return n, err
	}

	nameCount, err := count("full_name", fullName)
	if err != nil {
		return false, false, err
	}
	emailCount, err := count("email", email)
	if err != nil {
		return false, false, err
	}
	return nameCount > 0, emailCount > 0, nil
}

func (r *employeeRepo) Update(ctx context.Context, emp *model.Employee) error {
	return r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", emp.EmployeeID).
		Updates(map[string]interface{}{
			"full_name":  emp.FullName,
			"raic_color": emp.RaicColor,
			"email":      emp.Email,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *employeeRepo) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
