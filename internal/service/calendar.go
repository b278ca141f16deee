package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/mailer"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// Role 日历附件的接收方
type Role string

const (
	RoleRequester Role = "solicitante" // 让出班次
	RoleCover     Role = "cobertura"   // 接手班次
)

const (
	calendarProductID = "-//ShiftTradeAV//Shift Management//ES"
	calendarMIMEType  = "text/calendar; method=REQUEST; charset=UTF-8"
)

// ErrCalendarInput 生成日历附件所需字段缺失
var ErrCalendarInput = errors.New("生成日历附件的申请数据不完整")

// Artifact 日历附件
type Artifact struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Attachment 转为邮件附件
func (a *Artifact) Attachment() mailer.Attachment {
	return mailer.Attachment{Filename: a.Filename, ContentType: a.MIMEType, Content: a.Content}
}

// CalendarGenerator 为已批准的申请生成 iCalendar 事件
type CalendarGenerator struct {
	resolver *shiftclock.Resolver
	location string
	now      func() time.Time
}

// NewCalendarGenerator 创建日历生成器
func NewCalendarGenerator(resolver *shiftclock.Resolver, location string) *CalendarGenerator {
	return &CalendarGenerator{
		resolver: resolver,
		location: location,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Build 生成指定角色的日历附件
// 申请人收到 CANCELLED 事件，接替人收到 CONFIRMED 事件；起止时间为 UTC
func (g *CalendarGenerator) Build(req *model.ShiftRequest, role Role) (*Artifact, error) {
	if req == nil || req.ShiftRequestID == "" || req.ShiftDate.IsZero() {
		return nil, ErrCalendarInput
	}
	if role != RoleRequester && role != RoleCover {
		return nil, fmt.Errorf("%w: 未知角色 %q", ErrCalendarInput, role)
	}

	entry := shiftclock.EntryFor(req.FlightNumber)
	interval := g.resolver.Resolve(req.ShiftDate, req.FlightNumber)
	flight := flightLabel(req.FlightNumber)
	supervisor := orNA(req.SupervisorName)

	var (
		summary     string
		description string
		status      ics.ObjectStatus
	)
	switch role {
	case RoleRequester:
		summary = fmt.Sprintf("TURNO CEDIDO: %s (%s)", flight, entry.Display)
		description = strings.Join([]string{
			"Turno cedido - Intercambio aprobado",
			"Vuelo: " + flight,
			"Horario: " + entry.Display,
			"Cubierto por: " + orNA(req.CoverName),
			"Supervisor: " + supervisor,
		}, "\n")
		status = ics.ObjectStatusCancelled
	case RoleCover:
		summary = fmt.Sprintf("TURNO ACEPTADO: %s (%s)", flight, entry.Display)
		description = strings.Join([]string{
			"Turno aceptado por intercambio",
			"Vuelo: " + flight,
			"Horario: " + entry.Display,
			"Solicitante original: " + orNA(req.RequesterName),
			"Supervisor: " + supervisor,
		}, "\n")
		status = ics.ObjectStatusConfirmed
	}

	cal := ics.NewCalendarFor("ShiftTradeAV")
	cal.SetProductId(calendarProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodRequest)

	event := cal.AddEvent("shift-change-" + req.ShiftRequestID)
	event.SetDtStampTime(g.now())
	event.SetStartAt(interval.Start)
	event.SetEndAt(interval.End)
	event.SetSummary(summary)
	event.SetDescription(description)
	event.SetLocation(g.location)
	event.SetStatus(status)
	event.SetSequence(1)

	return &Artifact{
		Filename: fmt.Sprintf("turno_%s_%s.ics", role, flight),
		MIMEType: calendarMIMEType,
		Content:  []byte(cal.Serialize()),
	}, nil
}

func flightLabel(code shiftclock.ShiftCode) string {
	if code == "" {
		return "AV"
	}
	return string(code)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
