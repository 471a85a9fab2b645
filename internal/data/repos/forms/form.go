package forms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type FormRepo interface {
	Create(dbc dbctx.Context, rows []*types.Form) ([]*types.Form, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Form, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Form, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Form, error)
	ListPublishedIDsByUserID(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Overwrite(dbc dbctx.Context, row *types.Form) error
	SetPublishedAt(dbc dbctx.Context, id uuid.UUID, publishedAt *time.Time) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type formRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	repoLog := baseLog.With("repo", "FormRepo")
	return &formRepo{db: db, log: repoLog}
}

func (r *formRepo) Create(dbc dbctx.Context, rows []*types.Form) ([]*types.Form, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Form{}, nil
	}
	for _, row := range rows {
		row.Published = row.PublishedAt != nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *formRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Form, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Form
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil without error when no row matches.
func (r *formRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Form, error) {
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *formRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Form, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Form
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formRepo) ListPublishedIDsByUserID(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Form{}).
		Where("user_id = ? AND published_at IS NOT NULL", userID).
		Order("created_at DESC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Overwrite replaces title, description, content and the publish columns of row.ID.
// Zero values are written too. Returns gorm.ErrRecordNotFound when the row is gone.
func (r *formRepo) Overwrite(dbc dbctx.Context, row *types.Form) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Form{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"title":        row.Title,
			"description":  row.Description,
			"content":      row.Content,
			"published":    row.PublishedAt != nil,
			"published_at": row.PublishedAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *formRepo) SetPublishedAt(dbc dbctx.Context, id uuid.UUID, publishedAt *time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Form{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published":    publishedAt != nil,
			"published_at": publishedAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *formRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Form{}).Error
}
