package auth

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type OAuthNonceRepo interface {
	Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error)
	// Consume marks the unexpired, unused nonce with this hash as used. It reports false
	// when no such nonce exists, so a nonce can be accepted at most once.
	Consume(dbc dbctx.Context, provider, nonceHash string, now time.Time) (bool, error)
	FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

type oauthNonceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthNonceRepo(db *gorm.DB, baseLog *logger.Logger) OAuthNonceRepo {
	repoLog := baseLog.With("repo", "OAuthNonceRepo")
	return &oauthNonceRepo{db: db, log: repoLog}
}

func (r *oauthNonceRepo) Create(dbc dbctx.Context, nonces []*types.OAuthNonce) ([]*types.OAuthNonce, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(nonces) == 0 {
		return []*types.OAuthNonce{}, nil
	}
	if err := txx.WithContext(dbc.Ctx).Create(&nonces).Error; err != nil {
		return nil, err
	}
	return nonces, nil
}

func (r *oauthNonceRepo) Consume(dbc dbctx.Context, provider, nonceHash string, now time.Time) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.OAuthNonce{}).
		Where("provider = ? AND nonce_hash = ? AND used_at IS NULL AND expires_at > ?", provider, nonceHash, now).
		Update("used_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *oauthNonceRepo) FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("expires_at < ?", before).
		Delete(&types.OAuthNonce{})
	return res.RowsAffected, res.Error
}
