// Package mailer 封装出站邮件发送：SMTP 实现基于 gomail，未启用邮件时退化为仅记录日志。
package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/MateoHeras77/ShiftTradeAV/config"
)

// ErrInvalidMessage 收件人或主题缺失
var ErrInvalidMessage = errors.New("邮件缺少收件人或主题")

// Attachment 邮件附件
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message 待发送的纯文本邮件
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Validate 校验必填字段
func (m *Message) Validate() error {
	if m == nil || strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Sender 邮件发送能力
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// New 按配置选择发送实现
func New(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if !cfg.Enabled {
		logger.Warn("邮件未启用，出站邮件仅记录日志")
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}

// ── SMTP ──

// dialer gomail.Dialer 的发送能力，便于测试替换
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender 通过 SMTP（STARTTLS + 认证）发送
type SMTPSender struct {
	from   string
	dialer dialer
	logger *zap.Logger
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg *config.MailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// Send 组装 MIME 邮件并发送
// gomail 不支持 context，发送前检查是否已取消
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := buildMessage(s.from, msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("发送邮件失败",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("发送邮件到 %s 失败: %w", msg.To, err)
	}

	s.logger.Info("邮件已发送",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

func buildMessage(from string, msg *Message) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}
	return m
}

// ── 仅记录日志 ──

// LogSender 不发送，只记录日志；用于本地开发与未配置 SMTP 的环境
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender 创建日志发送器
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// tokenParam 接受链接中的一次性令牌
var tokenParam = regexp.MustCompile(`token=[^&\s]+`)

// redactBody 抹去正文中的令牌，避免日志中出现可直接使用的接受链接
func redactBody(body string) string {
	return tokenParam.ReplaceAllString(body, "token=***")
}

// Send 记录邮件摘要；正文抹去令牌后只在 Debug 级别输出
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	s.logger.Info("邮件（未发送）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Strings("attachments", names),
	)
	if ce := s.logger.Check(zap.DebugLevel, "邮件正文（未发送）"); ce != nil {
		ce.Write(zap.String("to", msg.To), zap.String("body", redactBody(msg.Body)))
	}
	return nil
}
