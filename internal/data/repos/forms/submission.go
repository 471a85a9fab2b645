package forms

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

// SubmissionRepo is append-only. Nothing here checks data against the form's fields.
type SubmissionRepo interface {
	Create(dbc dbctx.Context, rows []*types.FormSubmission) ([]*types.FormSubmission, error)
	ListByFormID(dbc dbctx.Context, formID uuid.UUID) ([]*types.FormSubmission, error)
	CountByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) (map[uuid.UUID]int, error)
	FullDeleteByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) error
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	repoLog := baseLog.With("repo", "SubmissionRepo")
	return &submissionRepo{db: db, log: repoLog}
}

func (r *submissionRepo) Create(dbc dbctx.Context, rows []*types.FormSubmission) ([]*types.FormSubmission, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.FormSubmission{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) ListByFormID(dbc dbctx.Context, formID uuid.UUID) ([]*types.FormSubmission, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FormSubmission
	if err := transaction.WithContext(dbc.Ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *submissionRepo) CountByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[uuid.UUID]int, len(formIDs))
	if len(formIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		FormID uuid.UUID
		N      int
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.FormSubmission{}).
		Select("form_id, COUNT(*) AS n").
		Where("form_id IN ?", formIDs).
		Group("form_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FormID] = row.N
	}
	return out, nil
}

func (r *submissionRepo) FullDeleteByFormIDs(dbc dbctx.Context, formIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(formIDs) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("form_id IN ?", formIDs).
		Delete(&types.FormSubmission{}).Error
}
