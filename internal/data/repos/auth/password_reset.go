package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type PasswordResetTokenRepo interface {
	Create(dbc dbctx.Context, rows []*types.PasswordResetToken) ([]*types.PasswordResetToken, error)
	// GetActive returns the unused, unexpired token with this id, or nil.
	GetActive(dbc dbctx.Context, id uuid.UUID, now time.Time) (*types.PasswordResetToken, error)
	MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
	FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

type passwordResetTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPasswordResetTokenRepo(db *gorm.DB, baseLog *logger.Logger) PasswordResetTokenRepo {
	return &passwordResetTokenRepo{db: db, log: baseLog.With("repo", "PasswordResetTokenRepo")}
}

func (r *passwordResetTokenRepo) Create(dbc dbctx.Context, rows []*types.PasswordResetToken) ([]*types.PasswordResetToken, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(rows) == 0 {
		return []*types.PasswordResetToken{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *passwordResetTokenRepo) GetActive(dbc dbctx.Context, id uuid.UUID, now time.Time) (*types.PasswordResetToken, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.PasswordResetToken
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND used_at IS NULL AND expires_at > ?", id, now).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// MarkUsed reports false when another request already used the token.
func (r *passwordResetTokenRepo) MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *passwordResetTokenRepo) FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("expires_at < ?", before).
		Delete(&types.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
