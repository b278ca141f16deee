package dto

// ── 换班申请 DTO ──

// PersonInput 申请人 / 接替人信息
type PersonInput struct {
	Name  string `json:"name"`
	Badge string `json:"badge"` // RAIC 颜色
	Email string `json:"email"`
}

// CreateShiftRequest 提交换班申请
// 字段校验在 Service 层完成，以便返回具体的失败规则
type CreateShiftRequest struct {
	ShiftDate    string      `json:"shift_date"` // YYYY-MM-DD
	FlightNumber string      `json:"flight_number"`
	Requester    PersonInput `json:"requester"`
	Cover        PersonInput `json:"cover"`
}

// CreateShiftRequestResponse 提交结果
type CreateShiftRequestResponse struct {
	ShiftRequestID string              `json:"shift_request_id"`
	Phase          string              `json:"phase"`
	TokenIssued    bool                `json:"token_issued"`
	TokenExpiresAt string              `json:"token_expires_at,omitempty"`
	Notification   NotificationOutcome `json:"notification"`
}

// AcceptRequest 接替人兑换接受链接
type AcceptRequest struct {
	Token string `json:"token" form:"token" binding:"required,max=64"`
}

// AcceptPreviewResponse 接受前预览
type AcceptPreviewResponse struct {
	ShiftRequest ShiftRequestResponse `json:"shift_request"`
}

// DecisionRequest 主管审批
type DecisionRequest struct {
	Comments string `json:"comments" binding:"omitempty,max=1000"`
}

// TransitionResponse 状态变更结果
type TransitionResponse struct {
	ShiftRequest ShiftRequestResponse `json:"shift_request"`
	Notification NotificationOutcome  `json:"notification"`
}

// ResendInviteResponse 重发邀请结果
type ResendInviteResponse struct {
	TokenExpiresAt string              `json:"token_expires_at"`
	Notification   NotificationOutcome `json:"notification"`
}

// HistoryFilter 历史查询参数
type HistoryFilter struct {
	Requester    string `form:"requester"     binding:"omitempty,max=100"`
	Cover        string `form:"cover"         binding:"omitempty,max=100"`
	Status       string `form:"status"        binding:"omitempty,oneof=pending approved rejected"`
	FlightNumber string `form:"flight_number" binding:"omitempty,max=32"`
	From         string `form:"from"          binding:"omitempty,datetime=2006-01-02"`
	To           string `form:"to"            binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// ShiftWindow 班次的绝对时间区间
type ShiftWindow struct {
	StartUTC  string `json:"start_utc"`
	EndUTC    string `json:"end_utc"`
	Display   string `json:"display"`
	Overnight bool   `json:"overnight"`
}

// ShiftRequestResponse 换班申请详情
type ShiftRequestResponse struct {
	ID                  string      `json:"id"`
	ShiftDate           string      `json:"shift_date"`
	FlightNumber        string      `json:"flight_number"`
	Window              ShiftWindow `json:"window"`
	RequesterName       string      `json:"requester_name"`
	RequesterBadge      string      `json:"requester_badge"`
	RequesterEmail      string      `json:"requester_email"`
	CoverName           string      `json:"cover_name"`
	CoverBadge          string      `json:"cover_badge"`
	CoverEmail          string      `json:"cover_email"`
	Phase               string      `json:"phase"`
	SupervisorStatus    string      `json:"supervisor_status"`
	CoverAcceptedAt     string      `json:"cover_accepted_at,omitempty"`
	SupervisorName      string      `json:"supervisor_name,omitempty"`
	SupervisorComments  string      `json:"supervisor_comments,omitempty"`
	SupervisorDecidedAt string      `json:"supervisor_decided_at,omitempty"`
	CreatedAt           string      `json:"created_at"`
}
