package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/service"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
)

// ShiftRequestHandler 换班申请 HTTP 处理器
type ShiftRequestHandler struct {
	svc service.ShiftRequestService
}

// NewShiftRequestHandler 创建 ShiftRequestHandler
func NewShiftRequestHandler(svc service.ShiftRequestService) *ShiftRequestHandler {
	return &ShiftRequestHandler{svc: svc}
}

// ── 公开接口 ──

// Create 提交换班申请
// POST /api/v1/shift-requests
func (h *ShiftRequestHandler) Create(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.Created(c, result)
}

// PreviewAccept 预览接受链接（只读）
// GET /api/v1/shift-requests/accept?token=
func (h *ShiftRequestHandler) PreviewAccept(c *gin.Context) {
	var req dto.AcceptRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.CodeInvalidParams, "缺少 token 参数")
		return
	}

	result, err := h.svc.PreviewByToken(c.Request.Context(), req.Token)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, result)
}

// Accept 接替人确认接受
// POST /api/v1/shift-requests/accept
func (h *ShiftRequestHandler) Accept(c *gin.Context) {
	var req dto.AcceptRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, response.CodeInvalidParams, "缺少 token 参数")
		return
	}

	result, err := h.svc.AcceptByToken(c.Request.Context(), req.Token)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 主管接口 ──

// ListPending 待审批申请
// GET /api/v1/shift-requests/pending
func (h *ShiftRequestHandler) ListPending(c *gin.Context) {
	list, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, list)
}

// ListHistory 申请历史
// GET /api/v1/shift-requests?requester=&cover=&status=&flight_number=&from=&to=&page=&page_size=
func (h *ShiftRequestHandler) ListHistory(c *gin.Context) {
	var filter dto.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Fail(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	list, total, err := h.svc.ListHistory(c.Request.Context(), &filter)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OKPage(c, list, total, filter.GetPage(), filter.GetPageSize())
}

// Get 申请详情
// GET /api/v1/shift-requests/:id
func (h *ShiftRequestHandler) Get(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, result)
}

// Approve 批准
// POST /api/v1/shift-requests/:id/approve
func (h *ShiftRequestHandler) Approve(c *gin.Context) {
	h.decide(c, model.StatusApproved)
}

// Reject 驳回
// POST /api/v1/shift-requests/:id/reject
func (h *ShiftRequestHandler) Reject(c *gin.Context) {
	h.decide(c, model.StatusRejected)
}

func (h *ShiftRequestHandler) decide(c *gin.Context, decision model.SupervisorStatus) {
	supervisor, ok := MustGetSupervisorName(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	// 批准时请求体可以为空；分块传输的请求体长度未知，一律解析，空体读到 EOF
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Fail(c, response.CodeInvalidParams, "参数校验失败")
			return
		}
	}

	result, err := h.svc.Decide(c.Request.Context(), c.Param("id"), decision, &req, supervisor)
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, result)
}

// ResendInvite 重新发送接受链接
// POST /api/v1/shift-requests/:id/resend-invite
func (h *ShiftRequestHandler) ResendInvite(c *gin.Context) {
	result, err := h.svc.ResendInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleWorkflowError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 错误映射 ──

func handleWorkflowError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithDetails(c, response.CodeValidation, verr.Message, verr.Rule)

	// 令牌
	case errors.Is(err, service.ErrTokenNotFound):
		response.Fail(c, response.CodeTokenNotFound, "接受链接无效")
	case errors.Is(err, service.ErrTokenExpired):
		response.Fail(c, response.CodeTokenExpired, "接受链接已过期")
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		response.Fail(c, response.CodeTokenUsed, "接受链接已被使用")
	case errors.Is(err, service.ErrTokenRevoked):
		response.Fail(c, response.CodeTokenRevoked, "接受链接已被新的链接取代")

	// 流程前置条件
	case errors.Is(err, service.ErrCoverNotAccepted):
		response.Fail(c, response.CodeCoverNotAccepted, "接替人尚未接受，不能批准")
	case errors.Is(err, service.ErrRejectCommentsRequired):
		response.Fail(c, response.CodeRejectCommentsRequired, "驳回必须填写理由")
	case errors.Is(err, service.ErrRequestFinalized):
		response.Fail(c, response.CodeRequestFinalized, "申请已有主管决定")
	case errors.Is(err, service.ErrShiftRequestNotFound):
		response.Fail(c, response.CodeShiftRequestNotFound, "换班申请不存在")
	case errors.Is(err, service.ErrAlreadyAccepted):
		response.Fail(c, response.CodeAlreadyAccepted, "接替人已接受该申请")
	case errors.Is(err, service.ErrInvalidDecision):
		response.Fail(c, response.CodeInvalidDecision, "无效的审批决定")

	default:
		response.InternalError(c)
	}
}
