package model

import "gorm.io/gorm"

// Employee 员工名册表，对应 employees
// 停用即软删除；在职员工的姓名与邮箱唯一
type Employee struct {
	EmployeeID string `gorm:"type:uuid;primaryKey"       json:"employee_id"`
	FullName   string `gorm:"type:varchar(100);not null" json:"full_name"`
	RaicColor  string `gorm:"type:varchar(20);not null"  json:"raic_color"`
	Email      string `gorm:"type:varchar(254);not null" json:"email"`
	IsActive   bool   `gorm:"not null;default:true"      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// BeforeCreate 生成主键
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.EmployeeID == "" {
		e.EmployeeID = newID()
	}
	return nil
}
