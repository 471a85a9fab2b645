package forms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Form is the storage row. Content embeds the whole GeneratedForm; the row's ID and
// PublishedAt win over whatever the embedded document says.
type Form struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string         `gorm:"column:title;not null;default:''" json:"title"`
	Description string         `gorm:"column:description;type:text;not null;default:''" json:"description"`
	Content     datatypes.JSON `gorm:"column:content;type:jsonb;not null" json:"content"`
	Published   bool           `gorm:"column:published;not null;default:false;index" json:"published"`
	PublishedAt *time.Time     `gorm:"column:published_at;index" json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Form) TableName() string { return "forms" }

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type FormSubmission struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FormID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"form_id"`
	Data           datatypes.JSON `gorm:"column:data;type:jsonb;not null" json:"data"`
	CompletionTime *float64       `gorm:"column:completion_time" json:"completion_time,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (FormSubmission) TableName() string { return "form_submissions" }

func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// AnalyticsCache holds one analysis blob per form. Freshness is the caller's policy.
type AnalyticsCache struct {
	FormID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"form_id"`
	Analysis    datatypes.JSON `gorm:"column:analysis;type:jsonb;not null" json:"analysis"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null" json:"generated_at"`
}

func (AnalyticsCache) TableName() string { return "analytics_cache" }
