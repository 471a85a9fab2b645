package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ProviderGoogle = "google"

// UserIdentity links an external OAuth subject to a local user.
type UserIdentity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider    string    `gorm:"column:provider;not null;uniqueIndex:idx_user_identity_provider_sub,priority:1" json:"provider"`
	ProviderSub string    `gorm:"column:provider_sub;not null;uniqueIndex:idx_user_identity_provider_sub,priority:2" json:"provider_sub"`
	Email       string    `gorm:"column:email;not null;default:''" json:"email"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UserIdentity) TableName() string { return "user_identity" }

func (i *UserIdentity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OAuthNonce is single use: UsedAt is set when an ID token carrying it is accepted.
type OAuthNonce struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Provider  string     `gorm:"column:provider;not null;index" json:"provider"`
	NonceHash string     `gorm:"column:nonce_hash;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OAuthNonce) TableName() string { return "oauth_nonce" }

func (n *OAuthNonce) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// PasswordResetToken stores only a bcrypt hash of the emailed secret.
type PasswordResetToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string     `gorm:"column:token_hash;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PasswordResetToken) TableName() string { return "password_reset_token" }

func (p *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
