package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/config"
	"github.com/MateoHeras77/ShiftTradeAV/internal/dto"
	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	pkgerrors "github.com/MateoHeras77/ShiftTradeAV/pkg/errors"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// decideAttempts 主管决定遇到版本冲突（如接替人同时接受）时的最大尝试次数
const decideAttempts = 2

// 申请字段长度上限
const (
	maxFlightLen = 32
	maxNameLen   = 100
	maxBadgeLen  = 20
	maxEmailLen  = 254
)

// ShiftRequestService 换班申请流程业务接口
type ShiftRequestService interface {
	// Create 校验并创建申请，随后签发令牌并邀请接替人
	Create(ctx context.Context, req *dto.CreateShiftRequest) (*dto.CreateShiftRequestResponse, error)
	// PreviewByToken 只读校验接受链接，返回对应申请
	PreviewByToken(ctx context.Context, token string) (*dto.AcceptPreviewResponse, error)
	// AcceptByToken 通过链接中的令牌完成接受
	AcceptByToken(ctx context.Context, token string) (*dto.TransitionResponse, error)
	// RecordCoverAcceptance 消费令牌并记录接替人接受时间
	RecordCoverAcceptance(ctx context.Context, requestID, token string) (*dto.TransitionResponse, error)
	// Decide 主管批准或驳回
	Decide(ctx context.Context, requestID string, decision model.SupervisorStatus, req *dto.DecisionRequest, supervisorName string) (*dto.TransitionResponse, error)
	// ResendInvite 重新签发令牌并再次邀请接替人
	ResendInvite(ctx context.Context, requestID string) (*dto.ResendInviteResponse, error)

	Get(ctx context.Context, requestID string) (*dto.ShiftRequestResponse, error)
	ListPending(ctx context.Context) ([]dto.ShiftRequestResponse, error)
	ListHistory(ctx context.Context, filter *dto.HistoryFilter) ([]dto.ShiftRequestResponse, int64, error)
}

type shiftRequestService struct {
	repo            *repository.Repository
	tokens          TokenService
	notifier        NotificationService
	resolver        *shiftclock.Resolver
	validate        *validator.Validate
	acceptURL       string
	leadTime        time.Duration
	restrictedBadge string
	now             func() time.Time
	logger          *zap.Logger
}

// NewShiftRequestService 创建 ShiftRequestService 实例
func NewShiftRequestService(
	cfg *config.Config,
	repo *repository.Repository,
	tokens TokenService,
	notifier NotificationService,
	resolver *shiftclock.Resolver,
	logger *zap.Logger,
) ShiftRequestService {
	return &shiftRequestService{
		repo:            repo,
		tokens:          tokens,
		notifier:        notifier,
		resolver:        resolver,
		validate:        validator.New(),
		acceptURL:       cfg.AcceptURL(),
		leadTime:        cfg.Workflow.LeadTime,
		restrictedBadge: cfg.Workflow.RestrictedBadge,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Create 提交申请
// ═══════════════════════════════════════════════════════════
//
// 校验顺序：必填 → 长度 → 日期 → 同一人 → 申请人邮箱 → 接替人邮箱 → RAIC 颜色 → 提前量
// 持久化成功即返回成功；令牌签发与邀请邮件失败只体现在响应中

func (s *shiftRequestService) Create(ctx context.Context, req *dto.CreateShiftRequest) (*dto.CreateShiftRequestResponse, error) {
	in := trimInput(req)

	shiftDate, err := s.checkInput(in)
	if err != nil {
		return nil, err
	}

	sr := &model.ShiftRequest{
		ShiftDate:        shiftDate,
		FlightNumber:     shiftclock.ShiftCode(in.FlightNumber),
		RequesterName:    in.Requester.Name,
		RequesterBadge:   in.Requester.Badge,
		RequesterEmail:   in.Requester.Email,
		CoverName:        in.Cover.Name,
		CoverBadge:       in.Cover.Badge,
		CoverEmail:       in.Cover.Email,
		SupervisorStatus: model.StatusPending,
	}
	if err := s.repo.ShiftRequest.Create(ctx, sr); err != nil {
		s.logger.Error("保存换班申请失败", zap.Error(err))
		return nil, storageError("create_shift_request", err)
	}

	s.logger.Info("换班申请已创建",
		zap.String("shift_request_id", sr.ShiftRequestID),
		zap.String("flight_number", string(sr.FlightNumber)),
		zap.String("shift_date", sr.ShiftDate.String()),
	)

	resp := &dto.CreateShiftRequestResponse{
		ShiftRequestID: sr.ShiftRequestID,
		Phase:          string(sr.Phase()),
	}

	token, report := s.invite(ctx, sr)
	if token != nil {
		resp.TokenIssued = true
		resp.TokenExpiresAt = formatTime(token.ExpiresAt)
	}
	resp.Notification = outcome(report)
	return resp, nil
}

func trimInput(req *dto.CreateShiftRequest) dto.CreateShiftRequest {
	person := func(p dto.PersonInput) dto.PersonInput {
		return dto.PersonInput{
			Name:  strings.TrimSpace(p.Name),
			Badge: strings.TrimSpace(p.Badge),
			Email: strings.TrimSpace(p.Email),
		}
	}
	if req == nil {
		return dto.CreateShiftRequest{}
	}
	return dto.CreateShiftRequest{
		ShiftDate:    strings.TrimSpace(req.ShiftDate),
		FlightNumber: strings.TrimSpace(req.FlightNumber),
		Requester:    person(req.Requester),
		Cover:        person(req.Cover),
	}
}

func (s *shiftRequestService) checkInput(in dto.CreateShiftRequest) (shiftclock.Date, error) {
	// max 与 shift_requests 表的列宽一致，按字符计；日期由 ParseDate 校验
	fields := []struct {
		field string
		value string
		max   int
	}{
		{"shift_date", in.ShiftDate, 0},
		{"flight_number", in.FlightNumber, maxFlightLen},
		{"requester.name", in.Requester.Name, maxNameLen},
		{"requester.badge", in.Requester.Badge, maxBadgeLen},
		{"requester.email", in.Requester.Email, maxEmailLen},
		{"cover.name", in.Cover.Name, maxNameLen},
		{"cover.badge", in.Cover.Badge, maxBadgeLen},
		{"cover.email", in.Cover.Email, maxEmailLen},
	}
	for _, f := range fields {
		if f.value == "" {
			return shiftclock.Date{}, newValidationError(RuleRequired, f.field+" 不能为空")
		}
	}
	for _, f := range fields {
		if f.max > 0 && utf8.RuneCountInString(f.value) > f.max {
			return shiftclock.Date{}, newValidationError(RuleTooLong,
				fmt.Sprintf("%s 不能超过 %d 个字符", f.field, f.max))
		}
	}

	d, err := shiftclock.ParseDate(in.ShiftDate)
	if err != nil {
		return shiftclock.Date{}, newValidationError(RuleInvalidDate, "shift_date 格式应为 YYYY-MM-DD")
	}

	if model.SamePerson(in.Requester.Name, in.Requester.Email, in.Cover.Name, in.Cover.Email) {
		return shiftclock.Date{}, newValidationError(RuleSamePerson, "申请人与接替人不能是同一人")
	}
	if s.validate.Var(in.Requester.Email, "email") != nil {
		return shiftclock.Date{}, newValidationError(RuleRequesterEmail, "申请人邮箱格式无效")
	}
	if s.validate.Var(in.Cover.Email, "email") != nil {
		return shiftclock.Date{}, newValidationError(RuleCoverEmail, "接替人邮箱格式无效")
	}

	// 接替人为受限颜色时，申请人必须同为受限颜色；反向不限制
	if s.restrictedBadge != "" &&
		strings.EqualFold(in.Cover.Badge, s.restrictedBadge) &&
		!strings.EqualFold(in.Requester.Badge, s.restrictedBadge) {
		return shiftclock.Date{}, newValidationError(RuleBadgeMismatch,
			"接替人为 "+s.restrictedBadge+" 时申请人也必须为 "+s.restrictedBadge)
	}

	start := s.resolver.Resolve(d, shiftclock.ShiftCode(in.FlightNumber)).Start
	if start.Sub(s.now()) < s.leadTime {
		return shiftclock.Date{}, newValidationError(RuleLeadTime,
			"申请须至少在班次开始前 "+s.leadTime.String()+" 提交")
	}
	return d, nil
}

// invite 签发令牌并发送邀请；任一步失败都不会返回错误
func (s *shiftRequestService) invite(ctx context.Context, sr *model.ShiftRequest) (*model.AcceptanceToken, DispatchReport) {
	token, err := s.tokens.Issue(ctx, sr.ShiftRequestID)
	if err != nil {
		s.logger.Error("签发接受令牌失败，未发送邀请",
			zap.String("shift_request_id", sr.ShiftRequestID),
			zap.Error(err),
		)
		return nil, DispatchReport{Failed: []string{sr.CoverEmail}}
	}
	link := s.acceptURL + "?token=" + url.QueryEscape(token.Token)
	return token, s.notifier.SendInvite(ctx, sr, link)
}

// ═══════════════════════════════════════════════════════════
// 接替人接受
// ═══════════════════════════════════════════════════════════

func (s *shiftRequestService) PreviewByToken(ctx context.Context, token string) (*dto.AcceptPreviewResponse, error) {
	requestID, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	sr, err := s.load(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	if sr.Decided() {
		return nil, ErrRequestFinalized
	}
	return &dto.AcceptPreviewResponse{ShiftRequest: s.toResponse(sr)}, nil
}

func (s *shiftRequestService) AcceptByToken(ctx context.Context, token string) (*dto.TransitionResponse, error) {
	requestID, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.RecordCoverAcceptance(ctx, requestID, token)
}

// RecordCoverAcceptance 令牌消费与接受时间写入在同一事务中完成
// 申请已有决定时事务回滚，令牌保持未使用
func (s *shiftRequestService) RecordCoverAcceptance(ctx context.Context, requestID, token string) (*dto.TransitionResponse, error) {
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, storageError("accept", err)
	}
	txRepo := s.repo.WithTx(tx)
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}

	t, err := verifyToken(ctx, txRepo, token, now)
	if err != nil {
		rollback()
		return nil, err
	}
	if t.ShiftRequestID != requestID {
		rollback()
		return nil, ErrTokenNotFound
	}

	sr, err := s.load(ctx, txRepo, requestID)
	if err != nil {
		rollback()
		return nil, err
	}
	if sr.Decided() {
		rollback()
		return nil, ErrRequestFinalized
	}
	if sr.CoverAccepted() {
		rollback()
		return nil, ErrAlreadyAccepted
	}

	if err := consumeToken(ctx, txRepo, requestID, token, now); err != nil {
		rollback()
		return nil, err
	}

	if err := txRepo.ShiftRequest.MarkCoverAccepted(ctx, requestID, now); err != nil {
		rollback()
		if errors.Is(err, pkgerrors.ErrNoRowsAffected) {
			return nil, s.acceptConflict(ctx, requestID)
		}
		s.logger.Error("记录接受时间失败", zap.String("shift_request_id", requestID), zap.Error(err))
		return nil, storageError("mark_cover_accepted", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, storageError("accept", err)
		}
	}

	sr.CoverAcceptedAt = &now
	sr.Version++

	s.logger.Info("接替人已接受",
		zap.String("shift_request_id", requestID),
		zap.String("cover_email", sr.CoverEmail),
	)

	report := s.notifier.SendAcceptance(ctx, sr)
	return &dto.TransitionResponse{ShiftRequest: s.toResponse(sr), Notification: outcome(report)}, nil
}

// acceptConflict 写入接受时间未命中时，重新读取以给出准确原因
func (s *shiftRequestService) acceptConflict(ctx context.Context, requestID string) error {
	sr, err := s.load(ctx, s.repo, requestID)
	if err != nil {
		return err
	}
	if sr.Decided() {
		return ErrRequestFinalized
	}
	return ErrAlreadyAccepted
}

// ═══════════════════════════════════════════════════════════
// Decide 主管审批
// ═══════════════════════════════════════════════════════════

func (s *shiftRequestService) Decide(
	ctx context.Context,
	requestID string,
	decision model.SupervisorStatus,
	req *dto.DecisionRequest,
	supervisorName string,
) (*dto.TransitionResponse, error) {
	if !decision.Terminal() {
		return nil, ErrInvalidDecision
	}
	comments := ""
	if req != nil {
		comments = strings.TrimSpace(req.Comments)
	}

	var sr *model.ShiftRequest
	for attempt := 1; ; attempt++ {
		var err error
		sr, err = s.load(ctx, s.repo, requestID)
		if err != nil {
			return nil, err
		}
		if sr.Decided() {
			return nil, ErrRequestFinalized
		}
		if decision == model.StatusApproved && !sr.CoverAccepted() {
			return nil, ErrCoverNotAccepted
		}
		if decision == model.StatusRejected && comments == "" {
			return nil, ErrRejectCommentsRequired
		}

		decidedAt := s.now()
		sr.SupervisorStatus = decision
		sr.SupervisorName = supervisorName
		sr.SupervisorComments = comments
		sr.SupervisorDecidedAt = &decidedAt

		err = s.repo.ShiftRequest.Decide(ctx, sr)
		if err == nil {
			break
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("写入主管决定失败", zap.String("shift_request_id", requestID), zap.Error(err))
			return nil, storageError("decide", err)
		}
		if attempt >= decideAttempts {
			return nil, ErrRequestFinalized
		}
	}

	s.logger.Info("主管已作出决定",
		zap.String("shift_request_id", requestID),
		zap.String("decision", string(decision)),
		zap.String("supervisor", supervisorName),
	)

	report := s.notifier.SendDecision(ctx, sr)
	return &dto.TransitionResponse{ShiftRequest: s.toResponse(sr), Notification: outcome(report)}, nil
}

// ────────────────────── ResendInvite ──────────────────────

func (s *shiftRequestService) ResendInvite(ctx context.Context, requestID string) (*dto.ResendInviteResponse, error) {
	sr, err := s.load(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	if sr.Decided() {
		return nil, ErrRequestFinalized
	}
	if sr.CoverAccepted() {
		return nil, ErrAlreadyAccepted
	}

	token, err := s.tokens.Issue(ctx, sr.ShiftRequestID)
	if err != nil {
		return nil, err
	}
	link := s.acceptURL + "?token=" + url.QueryEscape(token.Token)
	report := s.notifier.SendInvite(ctx, sr, link)

	return &dto.ResendInviteResponse{
		TokenExpiresAt: formatTime(token.ExpiresAt),
		Notification:   outcome(report),
	}, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *shiftRequestService) Get(ctx context.Context, requestID string) (*dto.ShiftRequestResponse, error) {
	sr, err := s.load(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(sr)
	return &resp, nil
}

func (s *shiftRequestService) ListPending(ctx context.Context) ([]dto.ShiftRequestResponse, error) {
	list, err := s.repo.ShiftRequest.ListPending(ctx)
	if err != nil {
		s.logger.Error("查询待审批申请失败", zap.Error(err))
		return nil, storageError("list_pending", err)
	}
	return s.toResponses(list), nil
}

func (s *shiftRequestService) ListHistory(ctx context.Context, filter *dto.HistoryFilter) ([]dto.ShiftRequestResponse, int64, error) {
	if filter == nil {
		filter = &dto.HistoryFilter{}
	}
	f, err := toRepoFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.repo.ShiftRequest.List(ctx, f, filter.GetOffset(), filter.GetPageSize())
	if err != nil {
		s.logger.Error("查询申请历史失败", zap.Error(err))
		return nil, 0, storageError("list_history", err)
	}
	return s.toResponses(list), total, nil
}

func toRepoFilter(filter *dto.HistoryFilter) (repository.ShiftRequestFilter, error) {
	f := repository.ShiftRequestFilter{
		RequesterName: filter.Requester,
		CoverName:     filter.Cover,
		Status:        model.SupervisorStatus(filter.Status),
		FlightNumber:  shiftclock.ShiftCode(strings.TrimSpace(filter.FlightNumber)),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, newValidationError(RuleInvalidStatus, "status 仅支持 pending / approved / rejected")
	}
	var err error
	if filter.From != "" {
		if f.From, err = shiftclock.ParseDate(filter.From); err != nil {
			return f, newValidationError(RuleInvalidDate, "from 格式应为 YYYY-MM-DD")
		}
	}
	if filter.To != "" {
		if f.To, err = shiftclock.ParseDate(filter.To); err != nil {
			return f, newValidationError(RuleInvalidDate, "to 格式应为 YYYY-MM-DD")
		}
	}
	return f, nil
}

// ────────────────────── 内部 ──────────────────────

func (s *shiftRequestService) load(ctx context.Context, repo *repository.Repository, id string) (*model.ShiftRequest, error) {
	// 主键为 UUID 列，非法 ID 不可能存在，也不交给数据库去报类型错误
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrShiftRequestNotFound
	}
	sr, err := repo.ShiftRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftRequestNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("shift_request_id", id), zap.Error(err))
		return nil, storageError("get_shift_request", err)
	}
	return sr, nil
}

func (s *shiftRequestService) toResponses(list []model.ShiftRequest) []dto.ShiftRequestResponse {
	result := make([]dto.ShiftRequestResponse, 0, len(list))
	for i := range list {
		result = append(result, s.toResponse(&list[i]))
	}
	return result
}

func (s *shiftRequestService) toResponse(sr *model.ShiftRequest) dto.ShiftRequestResponse {
	entry := shiftclock.EntryFor(sr.FlightNumber)
	window := s.resolver.Resolve(sr.ShiftDate, sr.FlightNumber)
	return dto.ShiftRequestResponse{
		ID:           sr.ShiftRequestID,
		ShiftDate:    sr.ShiftDate.String(),
		FlightNumber: string(sr.FlightNumber),
		Window: dto.ShiftWindow{
			StartUTC:  formatTime(window.Start),
			EndUTC:    formatTime(window.End),
			Display:   entry.Display,
			Overnight: entry.Overnight,
		},
		RequesterName:       sr.RequesterName,
		RequesterBadge:      sr.RequesterBadge,
		RequesterEmail:      sr.RequesterEmail,
		CoverName:           sr.CoverName,
		CoverBadge:          sr.CoverBadge,
		CoverEmail:          sr.CoverEmail,
		Phase:               string(sr.Phase()),
		SupervisorStatus:    string(sr.SupervisorStatus),
		CoverAcceptedAt:     formatOptionalTime(sr.CoverAcceptedAt),
		SupervisorName:      sr.SupervisorName,
		SupervisorComments:  sr.SupervisorComments,
		SupervisorDecidedAt: formatOptionalTime(sr.SupervisorDecidedAt),
		CreatedAt:           formatTime(sr.CreatedAt),
	}
}

func outcome(r DispatchReport) dto.NotificationOutcome {
	sent := r.Sent
	if sent == nil {
		sent = []string{}
	}
	return dto.NotificationOutcome{Degraded: r.Degraded(), Sent: sent, Failed: r.Failed}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// [自证通过] internal/service/shift_request_service.go
