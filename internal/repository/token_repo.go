package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	pkgerrors "github.com/MateoHeras77/ShiftTradeAV/pkg/errors"
)

// TokenRepository 接受令牌数据访问接口
type TokenRepository interface {
	Create(ctx context.Context, token *model.AcceptanceToken) error
	GetByToken(ctx context.Context, token string) (*model.AcceptanceToken, error)
	// Consume 比较并交换：仅当令牌属于该申请、未使用、未作废且 now 未超过过期时间时置为已使用
	Consume(ctx context.Context, shiftRequestID, token string, now time.Time) error
	// RevokeActive 作废申请下所有未使用、未作废的令牌，返回作废数量
	RevokeActive(ctx context.Context, shiftRequestID string, now time.Time) (int64, error)
	ListByRequest(ctx context.Context, shiftRequestID string) ([]model.AcceptanceToken, error)
}

type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepo 创建 TokenRepository 实例
func NewTokenRepo(db *gorm.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *model.AcceptanceToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepo) GetByToken(ctx context.Context, token string) (*model.AcceptanceToken, error) {
	var t model.AcceptanceToken
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Consume(ctx context.Context, shiftRequestID, token string, now time.Time) error {
	now = now.UTC()
	result := r.db.WithContext(ctx).
		Model(&model.AcceptanceToken{}).
		Where("token = ? AND shift_request_id = ? AND used = ? AND revoked_at IS NULL AND expires_at >= ?",
			token, shiftRequestID, false, now).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *tokenRepo) RevokeActive(ctx context.Context, shiftRequestID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AcceptanceToken{}).
		Where("shift_request_id = ? AND used = ? AND revoked_at IS NULL", shiftRequestID, false).
		Update("revoked_at", now.UTC())
	return result.RowsAffected, result.Error
}

func (r *tokenRepo) ListByRequest(ctx context.Context, shiftRequestID string) ([]model.AcceptanceToken, error) {
	var list []model.AcceptanceToken
	err := r.db.WithContext(ctx).
		Where("shift_request_id = ?", shiftRequestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
