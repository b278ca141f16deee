package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ── 业务码 ──
//
// 1xxxx 请求与认证，2xxxx 换班流程，5xxxx 内部错误；0 表示成功

const (
	CodeOK = 0

	CodeInvalidParams   = 10001
	CodeUnauthenticated = 10002
	CodeForbidden       = 10003
	CodeRateLimited     = 10004
	CodeBodyTooLarge    = 10005

	CodeInvalidCredentials = 11001
	CodeSupervisorDisabled = 11002

	CodeValidation = 20001 // details 为失败的校验规则名

	CodeTokenNotFound = 21001
	CodeTokenExpired  = 21002
	CodeTokenUsed     = 21003
	CodeTokenRevoked  = 21004

	CodeCoverNotAccepted       = 22001
	CodeRejectCommentsRequired = 22002
	CodeRequestFinalized       = 22003
	CodeShiftRequestNotFound   = 22004
	CodeAlreadyAccepted        = 22005
	CodeInvalidDecision        = 22006

	CodeEmployeeNotFound   = 23001
	CodeEmployeeNameTaken  = 23002
	CodeEmployeeEmailTaken = 23003

	CodeExportEmpty = 24001

	CodeInternal = 50000
)

// httpStatus 业务码对应的 HTTP 状态；未登记的业务码按内部错误处理
var httpStatus = map[int]int{
	CodeInvalidParams:   http.StatusBadRequest,
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeBodyTooLarge:    http.StatusRequestEntityTooLarge,

	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeSupervisorDisabled: http.StatusServiceUnavailable,

	CodeValidation: http.StatusBadRequest,

	CodeTokenNotFound: http.StatusNotFound,
	CodeTokenExpired:  http.StatusGone,
	CodeTokenUsed:     http.StatusConflict,
	CodeTokenRevoked:  http.StatusConflict,

	CodeCoverNotAccepted:       http.StatusConflict,
	CodeRejectCommentsRequired: http.StatusBadRequest,
	CodeRequestFinalized:       http.StatusConflict,
	CodeShiftRequestNotFound:   http.StatusNotFound,
	CodeAlreadyAccepted:        http.StatusConflict,
	CodeInvalidDecision:        http.StatusBadRequest,

	CodeEmployeeNotFound:   http.StatusNotFound,
	CodeEmployeeNameTaken:  http.StatusConflict,
	CodeEmployeeEmailTaken: http.StatusConflict,

	CodeExportEmpty: http.StatusNotFound,
}

// StatusOf 返回业务码对应的 HTTP 状态
func StatusOf(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 历史列表的分页数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// ── 成功 ──

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: CodeOK, Message: "success", Data: data})
}

// OKPage 分页成功，pageSize 非正时按 20 计算总页数
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	OK(c, PageData{
		List: list,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// ── 失败 ──

// Fail 按业务码写出错误响应，HTTP 状态由 StatusOf 决定
func Fail(c *gin.Context, code int, message string) {
	c.JSON(StatusOf(code), Response{Code: code, Message: message})
}

// FailWithDetails 同 Fail，附带机器可读的 details
func FailWithDetails(c *gin.Context, code int, message, details string) {
	c.JSON(StatusOf(code), Response{Code: code, Message: message, Details: details})
}

func PayloadTooLarge(c *gin.Context) {
	Fail(c, CodeBodyTooLarge, "请求体过大")
}

func InternalError(c *gin.Context) {
	Fail(c, CodeInternal, "服务器内部错误")
}
