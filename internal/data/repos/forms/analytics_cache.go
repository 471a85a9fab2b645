package forms

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

// AnalyticsCacheRepo stores one analysis per form. It has no notion of staleness.
type AnalyticsCacheRepo interface {
	Get(dbc dbctx.Context, formID uuid.UUID) (*types.AnalyticsCache, error)
	Upsert(dbc dbctx.Context, row *types.AnalyticsCache) error
	FullDeleteByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) error
}

type analyticsCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsCacheRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsCacheRepo {
	repoLog := baseLog.With("repo", "AnalyticsCacheRepo")
	return &analyticsCacheRepo{db: db, log: repoLog}
}

// Get returns nil without error on a miss.
func (r *analyticsCacheRepo) Get(dbc dbctx.Context, formID uuid.UUID) (*types.AnalyticsCache, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.AnalyticsCache
	if err := transaction.WithContext(dbc.Ctx).
		Where("form_id = ?", formID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert is last-write-wins on form_id.
func (r *analyticsCacheRepo) Upsert(dbc dbctx.Context, row *types.AnalyticsCache) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "form_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"analysis", "generated_at"}),
		}).
		Create(row).Error
}

func (r *analyticsCacheRepo) FullDeleteByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(formIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("form_id IN ?", formIDs).
		Delete(&types.AnalyticsCache{}).Error
}
