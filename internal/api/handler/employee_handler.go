package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/service"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
)

// EmployeeHandler 员工名册 HTTP 处理器
type EmployeeHandler struct {
	svc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(svc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// List 在职员工
// GET /api/v1/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	list, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, list)
}

// Create 新增员工
// POST /api/v1/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleEmployeeError(c, err)
		return
	}
	response.Created(c, result)
}

// Update 修改员工
// PUT /api/v1/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleEmployeeError(c, err)
		return
	}
	response.OK(c, result)
}

// Deactivate 停用员工
// DELETE /api/v1/employees/:id
func (h *EmployeeHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		handleEmployeeError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.Fail(c, response.CodeEmployeeNotFound, "员工不存在")
	case errors.Is(err, service.ErrEmployeeNameTaken):
		response.Fail(c, response.CodeEmployeeNameTaken, "已存在同名在职员工")
	case errors.Is(err, service.ErrEmployeeEmailTaken):
		response.Fail(c, response.CodeEmployeeEmailTaken, "该邮箱已被在职员工使用")
	default:
		response.InternalError(c)
	}
}
