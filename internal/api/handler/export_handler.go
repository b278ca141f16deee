package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/service"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportHistory 导出换班历史
// GET /api/v1/shift-requests/export?from=&to=&status=...
func (h *ExportHandler) ExportHistory(c *gin.Context) {
	var filter dto.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Fail(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportHistory(c.Request.Context(), &filter)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithDetails(c, response.CodeValidation, verr.Message, verr.Rule)
	case errors.Is(err, service.ErrExportNoRecords):
		response.Fail(c, response.CodeExportEmpty, "没有符合条件的换班记录")
	default:
		response.InternalError(c)
	}
}
