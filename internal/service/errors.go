package service

import (
	"errors"
	"fmt"
)

// ── 申请校验 ──

// 校验规则名，随 ValidationError 返回给调用方
const (
	RuleRequired       = "required"
	RuleTooLong        = "too_long"
	RuleInvalidDate    = "invalid_date"
	RuleSamePerson     = "same_person"
	RuleRequesterEmail = "requester_email"
	RuleCoverEmail     = "cover_email"
	RuleBadgeMismatch  = "badge_mismatch"
	RuleLeadTime       = "lead_time"
	RuleInvalidStatus  = "invalid_status" // 历史查询的状态过滤
)

// ValidationError 创建申请时的输入校验失败，Rule 标识失败的规则
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("申请校验失败[%s]: %s", e.Rule, e.Message)
}

func newValidationError(rule, msg string) *ValidationError {
	return &ValidationError{Rule: rule, Message: msg}
}

// ── 令牌 ──

var (
	ErrTokenNotFound    = errors.New("接受链接无效")
	ErrTokenExpired     = errors.New("接受链接已过期")
	ErrTokenAlreadyUsed = errors.New("接受链接已被使用")
	ErrTokenRevoked     = errors.New("接受链接已被新的链接取代")
)

// ── 流程前置条件 ──

// ErrPreconditionFailed 所有前置条件错误的公共父错误
var ErrPreconditionFailed = errors.New("前置条件不满足")

var (
	ErrShiftRequestNotFound   = errors.New("换班申请不存在")
	ErrCoverNotAccepted       = fmt.Errorf("%w: 接替人尚未接受，不能批准", ErrPreconditionFailed)
	ErrRejectCommentsRequired = fmt.Errorf("%w: 驳回必须填写理由", ErrPreconditionFailed)
	ErrRequestFinalized       = fmt.Errorf("%w: 申请已有主管决定", ErrPreconditionFailed)
	ErrAlreadyAccepted        = fmt.Errorf("%w: 接替人已接受该申请", ErrPreconditionFailed)
	ErrInvalidDecision        = errors.New("无效的审批决定")
)

// ── 员工 ──

var (
	ErrEmployeeNotFound   = errors.New("员工不存在")
	ErrEmployeeNameTaken  = errors.New("已存在同名在职员工")
	ErrEmployeeEmailTaken = errors.New("该邮箱已被在职员工使用")
)

// ── 主管认证 ──

var (
	ErrInvalidCredentials = errors.New("主管姓名或密码错误")
	ErrSupervisorDisabled = errors.New("未配置主管密码，主管登录不可用")
)

// ── 基础设施 ──

// StorageError 存储层失败
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("存储操作 %s 失败: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// MailError 邮件投递失败（只记录，不回滚已完成的状态变更）
type MailError struct {
	To  string
	Err error
}

func (e *MailError) Error() string { return fmt.Sprintf("邮件投递到 %s 失败: %v", e.To, e.Err) }

func (e *MailError) Unwrap() error { return e.Err }
