package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	pkgerrors "github.com/MateoHeras77/ShiftTradeAV/pkg/errors"
)

// TokenService 接受令牌的签发与校验
type TokenService interface {
	// Issue 为申请签发新令牌，同时作废该申请下其他未使用的令牌
	Issue(ctx context.Context, shiftRequestID string) (*model.AcceptanceToken, error)
	// Verify 只读校验，返回令牌绑定的申请 ID
	Verify(ctx context.Context, token string) (string, error)
	// Consume 原子地将令牌置为已使用，令牌必须属于 shiftRequestID
	Consume(ctx context.Context, shiftRequestID, token string) error
}

type tokenService struct {
	repo   *repository.Repository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenService 创建 TokenService 实例
func NewTokenService(repo *repository.Repository, ttl time.Duration, logger *zap.Logger) TokenService {
	return newTokenService(repo, ttl, logger)
}

func newTokenService(repo *repository.Repository, ttl time.Duration, logger *zap.Logger) *tokenService {
	return &tokenService{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ────────────────────── Issue ──────────────────────

func (s *tokenService) Issue(ctx context.Context, shiftRequestID string) (*model.AcceptanceToken, error) {
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, storageError("issue_token", err)
	}
	txRepo := s.repo.WithTx(tx)

	revoked, err := txRepo.Token.RevokeActive(ctx, shiftRequestID, now)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("作废旧令牌失败", zap.String("shift_request_id", shiftRequestID), zap.Error(err))
		return nil, storageError("revoke_tokens", err)
	}

	token := &model.AcceptanceToken{
		ShiftRequestID: shiftRequestID,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}
	if err := txRepo.Token.Create(ctx, token); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("保存令牌失败", zap.String("shift_request_id", shiftRequestID), zap.Error(err))
		return nil, storageError("create_token", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, storageError("issue_token", err)
		}
	}

	s.logger.Info("接受令牌已签发",
		zap.String("shift_request_id", shiftRequestID),
		zap.Time("expires_at", token.ExpiresAt),
		zap.Int64("revoked", revoked),
	)
	return token, nil
}

// ────────────────────── Verify / Consume ──────────────────────

func (s *tokenService) Verify(ctx context.Context, token string) (string, error) {
	t, err := verifyToken(ctx, s.repo, token, s.now())
	if err != nil {
		return "", err
	}
	return t.ShiftRequestID, nil
}

func (s *tokenService) Consume(ctx context.Context, shiftRequestID, token string) error {
	return consumeToken(ctx, s.repo, shiftRequestID, token, s.now())
}

// verifyToken 按 不存在 → 过期 → 已使用 → 已作废 的顺序判定
func verifyToken(ctx context.Context, repo *repository.Repository, token string, now time.Time) (*model.AcceptanceToken, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	t, err := repo.Token.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, storageError("get_token", err)
	}
	if err := tokenState(t, now); err != nil {
		return nil, err
	}
	return t, nil
}

func tokenState(t *model.AcceptanceToken, now time.Time) error {
	switch {
	case t.ExpiredAt(now):
		return ErrTokenExpired
	case t.Used:
		return ErrTokenAlreadyUsed
	case t.Revoked():
		return ErrTokenRevoked
	}
	return nil
}

// consumeToken 比较并交换；未命中时重新读取以给出准确原因
func consumeToken(ctx context.Context, repo *repository.Repository, shiftRequestID, token string, now time.Time) error {
	err := repo.Token.Consume(ctx, shiftRequestID, token, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		return storageError("consume_token", err)
	}

	t, verr := verifyToken(ctx, repo, token, now)
	if verr != nil {
		return verr
	}
	if t.ShiftRequestID != shiftRequestID {
		return ErrTokenNotFound
	}
	// 读到的状态仍有效，说明并发兑换刚刚完成
	return ErrTokenAlreadyUsed
}
