package dto

// ── 员工名册 DTO ──

// CreateEmployeeRequest 新增员工
type CreateEmployeeRequest struct {
	FullName  string `json:"full_name"  yaml:"full_name"  binding:"required,min=2,max=100" validate:"required,min=2,max=100"`
	RaicColor string `json:"raic_color" yaml:"raic_color" binding:"required,max=20"        validate:"required,max=20"`
	Email     string `json:"email"      yaml:"email"      binding:"required,email,max=254" validate:"required,email,max=254"`
}

// UpdateEmployeeRequest 修改员工
type UpdateEmployeeRequest struct {
	FullName  string `json:"full_name"  binding:"required,min=2,max=100"`
	RaicColor string `json:"raic_color" binding:"required,max=20"`
	Email     string `json:"email"      binding:"required,email,max=254"`
}

// EmployeeRoster 名册导入文件（YAML）
type EmployeeRoster struct {
	Employees []CreateEmployeeRequest `yaml:"employees" validate:"required,min=1,dive"`
}

// EmployeeResponse 员工信息
type EmployeeResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	RaicColor string `json:"raic_color"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
}

// ImportResult 名册导入结果
type ImportResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped,omitempty"` // 因姓名 / 邮箱冲突跳过的员工
}
