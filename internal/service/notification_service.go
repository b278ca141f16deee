package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/mailer"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// DispatchReport 一次通知扇出的投递结果
type DispatchReport struct {
	Sent   []string `json:"sent"`
	Failed []string `json:"failed,omitempty"`
}

// Degraded 是否有邮件投递失败
func (r DispatchReport) Degraded() bool { return len(r.Failed) > 0 }

// Merge 合并两次投递结果
func (r DispatchReport) Merge(o DispatchReport) DispatchReport {
	return DispatchReport{
		Sent:   append(append([]string{}, r.Sent...), o.Sent...),
		Failed: append(append([]string{}, r.Failed...), o.Failed...),
	}
}

// NotificationService 流程各阶段的邮件通知
// 投递失败只记录并体现在 DispatchReport 中，不向调用方返回错误
type NotificationService interface {
	// SendInvite 向接替人发送接受链接
	SendInvite(ctx context.Context, req *model.ShiftRequest, acceptLink string) DispatchReport
	// SendAcceptance 接替人接受后通知双方
	SendAcceptance(ctx context.Context, req *model.ShiftRequest) DispatchReport
	// SendDecision 主管决定后通知双方；批准时附带各自的日历事件
	SendDecision(ctx context.Context, req *model.ShiftRequest) DispatchReport
}

type notificationService struct {
	sender    mailer.Sender
	calendar  *CalendarGenerator
	resolver  *shiftclock.Resolver
	linkValid time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(
	sender mailer.Sender,
	calendar *CalendarGenerator,
	resolver *shiftclock.Resolver,
	linkValid time.Duration,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		sender:    sender,
		calendar:  calendar,
		resolver:  resolver,
		linkValid: linkValid,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// ────────────────────── 邀请 ──────────────────────

func (s *notificationService) SendInvite(ctx context.Context, req *model.ShiftRequest, acceptLink string) DispatchReport {
	shiftDate := shiftclock.FormatDate(req.ShiftDate)
	requested := req.CreatedAt
	if requested.IsZero() {
		requested = s.now()
	}
	body := fmt.Sprintf(`Hola %s,

%s ha solicitado que cubras su turno para el vuelo %s el %s.

**Detalles de la solicitud:**
• Fecha de solicitud: %s
• Vuelo: %s
• Fecha del turno: %s
• Horario: %s
• Solicitante: %s

Para aceptar, por favor haz clic en el siguiente enlace (válido por %d horas):
%s

Gracias.`,
		req.CoverName,
		req.RequesterName, req.FlightNumber, shiftDate,
		s.resolver.FormatDateTime(requested),
		req.FlightNumber,
		shiftDate,
		shiftclock.EntryFor(req.FlightNumber).Display,
		req.RequesterName,
		int(s.linkValid.Hours()),
		acceptLink,
	)

	return s.dispatch(ctx, req, &mailer.Message{
		To:      req.CoverEmail,
		Subject: "Solicitud de Cobertura de Turno",
		Body:    body,
	})
}

// ────────────────────── 接受确认 ──────────────────────

func (s *notificationService) SendAcceptance(ctx context.Context, req *model.ShiftRequest) DispatchReport {
	const subject = "Confirmación de Cambio de Turno Aceptado"

	requesterBody := fmt.Sprintf(`Hola %s,

Buenas noticias. %s ha aceptado cubrir tu turno para el vuelo %s.
La solicitud está ahora pendiente de aprobación por el supervisor.

Saludos.`, req.RequesterName, req.CoverName, req.FlightNumber)

	coverBody := fmt.Sprintf(`Hola %s,

Has aceptado cubrir el turno de %s para el vuelo %s.
La solicitud está ahora pendiente de aprobación por el supervisor.

Gracias por tu colaboración.`, req.CoverName, req.RequesterName, req.FlightNumber)

	return s.dispatch(ctx, req,
		&mailer.Message{To: req.RequesterEmail, Subject: subject, Body: requesterBody},
		&mailer.Message{To: req.CoverEmail, Subject: subject, Body: coverBody},
	)
}

// ────────────────────── 审批结果 ──────────────────────

func (s *notificationService) SendDecision(ctx context.Context, req *model.ShiftRequest) DispatchReport {
	switch req.SupervisorStatus {
	case model.StatusApproved:
		return s.sendApproval(ctx, req)
	case model.StatusRejected:
		return s.sendRejection(ctx, req)
	default:
		s.logger.Warn("申请尚无主管决定，跳过通知", zap.String("shift_request_id", req.ShiftRequestID))
		return DispatchReport{}
	}
}

func (s *notificationService) sendApproval(ctx context.Context, req *model.ShiftRequest) DispatchReport {
	const subject = "✅ Cambio de Turno APROBADO"
	shiftDate := shiftclock.FormatDate(req.ShiftDate)
	accepted := s.formatOptional(req.CoverAcceptedAt)
	decided := s.formatOptional(req.SupervisorDecidedAt)
	comments := req.SupervisorComments
	if strings.TrimSpace(comments) == "" {
		comments = "Sin comentarios adicionales"
	}

	requesterBody := fmt.Sprintf(`Hola %s,

¡Excelentes noticias! Tu solicitud de cambio de turno ha sido APROBADA.

**Detalles del cambio aprobado:**
• Vuelo: %s
• Fecha del turno: %s
• Compañero que cubre: %s
• Supervisor que aprobó: %s
• Fecha de aprobación: %s

**Cronología:**
1. Solicitud enviada ✅
2. Aceptado por %s el %s ✅
3. Aprobado por supervisor el %s ✅

**Comentarios del supervisor:** %s

El cambio de turno está oficialmente autorizado.

Saludos,
ShiftTradeAV`,
		req.RequesterName, req.FlightNumber, shiftDate, req.CoverName, req.SupervisorName, decided,
		req.CoverName, accepted, decided, comments)

	coverBody := fmt.Sprintf(`Hola %s,

El cambio de turno que aceptaste cubrir ha sido APROBADO por el supervisor.

**Detalles del cambio aprobado:**
• Vuelo: %s
• Fecha del turno: %s
• Solicitante original: %s
• Supervisor que aprobó: %s
• Fecha de aprobación: %s

**Cronología:**
1. Solicitud enviada ✅
2. Tú aceptaste el %s ✅
3. Aprobado por supervisor el %s ✅

**Comentarios del supervisor:** %s

Gracias por tu colaboración. El cambio está oficialmente autorizado.

Saludos,
ShiftTradeAV`,
		req.CoverName, req.FlightNumber, shiftDate, req.RequesterName, req.SupervisorName, decided,
		accepted, decided, comments)

	requesterMsg := &mailer.Message{To: req.RequesterEmail, Subject: subject, Body: requesterBody}
	coverMsg := &mailer.Message{To: req.CoverEmail, Subject: subject, Body: coverBody}
	s.attachCalendar(req, RoleRequester, requesterMsg)
	s.attachCalendar(req, RoleCover, coverMsg)

	return s.dispatch(ctx, req, requesterMsg, coverMsg)
}

func (s *notificationService) sendRejection(ctx context.Context, req *model.ShiftRequest) DispatchReport {
	const subject = "❌ Cambio de Turno RECHAZADO"
	shiftDate := shiftclock.FormatDate(req.ShiftDate)
	accepted := s.formatOptional(req.CoverAcceptedAt)
	decided := s.formatOptional(req.SupervisorDecidedAt)

	requesterBody := fmt.Sprintf(`Hola %s,

Lamentamos informarte que tu solicitud de cambio de turno ha sido RECHAZADA.

**Detalles de la solicitud rechazada:**
• Vuelo: %s
• Fecha del turno: %s
• Compañero que había aceptado: %s
• Supervisor que rechazó: %s
• Fecha de rechazo: %s

**Cronología:**
1. Solicitud enviada ✅
2. Aceptado por %s el %s ✅
3. Rechazado por supervisor el %s ❌

**Motivo del rechazo:** %s

Puedes presentar una nueva solicitud si consideras que las circunstancias han cambiado.

Saludos,
ShiftTradeAV`,
		req.RequesterName, req.FlightNumber, shiftDate, req.CoverName, req.SupervisorName, decided,
		req.CoverName, accepted, decided, req.SupervisorComments)

	coverBody := fmt.Sprintf(`Hola %s,

Te informamos que el cambio de turno que habías aceptado cubrir ha sido RECHAZADO por el supervisor.

**Detalles de la solicitud rechazada:**
• Vuelo: %s
• Fecha del turno: %s
• Solicitante original: %s
• Supervisor que rechazó: %s
• Fecha de rechazo: %s

**Cronología:**
1. Solicitud enviada ✅
2. Tú aceptaste el %s ✅
3. Rechazado por supervisor el %s ❌

**Motivo del rechazo:** %s

Ya no necesitas cubrir este turno. Gracias por tu disposición.

Saludos,
ShiftTradeAV`,
		req.CoverName, req.FlightNumber, shiftDate, req.RequesterName, req.SupervisorName, decided,
		accepted, decided, req.SupervisorComments)

	return s.dispatch(ctx, req,
		&mailer.Message{To: req.RequesterEmail, Subject: subject, Body: requesterBody},
		&mailer.Message{To: req.CoverEmail, Subject: subject, Body: coverBody},
	)
}

// ────────────────────── 内部 ──────────────────────

// attachCalendar 生成失败时邮件照常发送，仅缺少附件
func (s *notificationService) attachCalendar(req *model.ShiftRequest, role Role, msg *mailer.Message) {
	artifact, err := s.calendar.Build(req, role)
	if err != nil {
		s.logger.Warn("生成日历附件失败，改为发送无附件邮件",
			zap.String("shift_request_id", req.ShiftRequestID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return
	}
	msg.Attachments = append(msg.Attachments, artifact.Attachment())
}

func (s *notificationService) dispatch(ctx context.Context, req *model.ShiftRequest, msgs ...*mailer.Message) DispatchReport {
	var report DispatchReport
	for _, msg := range msgs {
		if err := s.sendOne(ctx, msg); err != nil {
			s.logger.Error("通知投递失败",
				zap.String("shift_request_id", req.ShiftRequestID),
				zap.String("subject", msg.Subject),
				zap.Error(&MailError{To: msg.To, Err: err}),
			)
			report.Failed = append(report.Failed, msg.To)
			continue
		}
		report.Sent = append(report.Sent, msg.To)
	}
	return report
}

func (s *notificationService) sendOne(ctx context.Context, msg *mailer.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("发送邮件时 panic: %v", r)
		}
	}()
	return s.sender.Send(ctx, msg)
}

func (s *notificationService) formatOptional(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return s.resolver.FormatDateTime(*t)
}
