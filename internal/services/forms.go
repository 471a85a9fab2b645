package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

const (
	statsCompletionRate = 87.3
	statsAverageSeconds = 45
)

type FormService interface {
	SaveForm(ctx context.Context, userID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error)
	// SaveForms stores several forms in one transaction: either all rows exist afterwards
	// or none do.
	SaveForms(ctx context.Context, userID uuid.UUID, docs []forms.GeneratedForm) ([]forms.GeneratedForm, error)
	GetUserForms(ctx context.Context, userID uuid.UUID) ([]forms.GeneratedForm, error)
	GetFormByID(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error)
	GetPublishedForm(ctx context.Context, formID uuid.UUID) (forms.GeneratedForm, error)
	UpdateForm(ctx context.Context, userID, formID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error)
	DeleteForm(ctx context.Context, userID, formID uuid.UUID) error
	PublishForm(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error)
	UnpublishForm(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error)
	GetPublishedFormIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetAggregatedStats(ctx context.Context, userID uuid.UUID) (forms.AggregatedStats, error)
}

type formService struct {
	db             *gorm.DB
	log            *logger.Logger
	formRepo       repos.FormRepo
	submissionRepo repos.SubmissionRepo
	cacheRepo      repos.AnalyticsCacheRepo
	now            func() time.Time
}

func NewFormService(
	db *gorm.DB,
	log *logger.Logger,
	formRepo repos.FormRepo,
	submissionRepo repos.SubmissionRepo,
	cacheRepo repos.AnalyticsCacheRepo,
) FormService {
	return &formService{
		db:             db,
		log:            log.With("service", "FormService"),
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
		cacheRepo:      cacheRepo,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SaveForm always inserts. The document's own id becomes the row id when it is a free
// uuid; otherwise a new one is minted.
func (s *formService) SaveForm(ctx context.Context, userID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error) {
	return s.insert(dbctx.Context{Ctx: ctx}, userID, form)
}

func (s *formService) SaveForms(ctx context.Context, userID uuid.UUID, docs []forms.GeneratedForm) ([]forms.GeneratedForm, error) {
	out := make([]forms.GeneratedForm, 0, len(docs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, f := range docs {
			doc, err := s.insert(dbc, userID, f)
			if err != nil {
				return err
			}
			out = append(out, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *formService) insert(dbc dbctx.Context, userID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error) {
	rowID := uuid.New()
	if id, err := uuid.Parse(form.ID); err == nil && id != uuid.Nil {
		existing, err := s.formRepo.GetByID(dbc, id)
		if err != nil {
			return forms.GeneratedForm{}, fmt.Errorf("check form id: %w", err)
		}
		if existing == nil {
			rowID = id
		}
	}

	doc := form.Clone()
	doc.ID = rowID.String()
	row, err := formRow(doc)
	if err != nil {
		return forms.GeneratedForm{}, err
	}
	row.ID = rowID
	row.UserID = userID

	created, err := s.formRepo.Create(dbc, []*types.Form{row})
	if err != nil {
		return forms.GeneratedForm{}, fmt.Errorf("save form: %w", err)
	}
	out, ok := decodeForm(created[0])
	if !ok {
		return forms.GeneratedForm{}, fmt.Errorf("save form: stored content is not a form")
	}
	s.log.Debug("Form saved", "form_id", rowID, "user_id", userID)
	return out, nil
}

func (s *formService) GetUserForms(ctx context.Context, userID uuid.UUID) ([]forms.GeneratedForm, error) {
	rows, err := s.formRepo.ListByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	out := make([]forms.GeneratedForm, 0, len(rows))
	for _, row := range rows {
		doc, ok := decodeForm(row)
		if !ok {
			s.log.Warn("Skipping form with unreadable content", "form_id", row.ID)
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *formService) GetFormByID(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error) {
	row, err := s.ownedRow(dbctx.Context{Ctx: ctx}, userID, formID)
	if err != nil {
		return forms.GeneratedForm{}, err
	}
	doc, ok := decodeForm(row)
	if !ok {
		return forms.GeneratedForm{}, ErrFormNotFound
	}
	return doc, nil
}

func (s *formService) GetPublishedForm(ctx context.Context, formID uuid.UUID) (forms.GeneratedForm, error) {
	row, err := s.formRepo.GetByID(dbctx.Context{Ctx: ctx}, formID)
	if err != nil {
		return forms.GeneratedForm{}, fmt.Errorf("load form: %w", err)
	}
	if row == nil {
		return forms.GeneratedForm{}, ErrFormNotFound
	}
	if row.PublishedAt == nil {
		return forms.GeneratedForm{}, ErrFormNotPublished
	}
	doc, ok := decodeForm(row)
	if !ok {
		return forms.GeneratedForm{}, ErrFormNotFound
	}
	return doc, nil
}

// UpdateForm overwrites the whole row from form; partial updates are the caller's
// read-modify-write.
func (s *formService) UpdateForm(ctx context.Context, userID, formID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error) {
	var out forms.GeneratedForm
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.ownedRow(dbc, userID, formID); err != nil {
			return err
		}
		doc, err := s.overwrite(dbc, formID, form)
		if err != nil {
			return err
		}
		out = doc
		return nil
	})
	return out, err
}

func (s *formService) DeleteForm(ctx context.Context, userID, formID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.ownedRow(dbc, userID, formID); err != nil {
			return err
		}
		ids := []uuid.UUID{formID}
		if err := s.submissionRepo.FullDeleteByFormIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete submissions: %w", err)
		}
		if err := s.cacheRepo.FullDeleteByFormIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete analytics cache: %w", err)
		}
		if err := s.formRepo.FullDeleteByIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete form: %w", err)
		}
		return nil
	})
}

func (s *formService) PublishForm(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error) {
	now := s.now()
	return s.setPublished(ctx, userID, formID, &now)
}

func (s *formService) UnpublishForm(ctx context.Context, userID, formID uuid.UUID) (forms.GeneratedForm, error) {
	return s.setPublished(ctx, userID, formID, nil)
}

// setPublished only touches the publish columns. Reads take publishedAt from the row,
// so the embedded document is left as stored.
func (s *formService) setPublished(ctx context.Context, userID, formID uuid.UUID, at *time.Time) (forms.GeneratedForm, error) {
	var out forms.GeneratedForm
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.ownedRow(dbc, userID, formID); err != nil {
			return err
		}
		if err := s.formRepo.SetPublishedAt(dbc, formID, at); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormNotFound
			}
			return fmt.Errorf("set published: %w", err)
		}
		row, err := s.formRepo.GetByID(dbc, formID)
		if err != nil {
			return fmt.Errorf("load form: %w", err)
		}
		doc, ok := decodeForm(row)
		if !ok {
			return ErrFormNotFound
		}
		out = doc
		return nil
	})
	return out, err
}

func (s *formService) GetPublishedFormIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.formRepo.ListPublishedIDsByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list published forms: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// GetAggregatedStats backs the dashboard overview. The completion rate and time are
// fixed figures, not measurements.
func (s *formService) GetAggregatedStats(ctx context.Context, userID uuid.UUID) (forms.AggregatedStats, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.formRepo.ListByUserID(dbc, userID)
	if err != nil {
		return forms.AggregatedStats{}, fmt.Errorf("list forms: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.submissionRepo.CountByFormIDs(dbc, ids)
	if err != nil {
		return forms.AggregatedStats{}, fmt.Errorf("count submissions: %w", err)
	}

	stats := forms.AggregatedStats{TotalForms: len(rows)}
	for _, n := range counts {
		stats.TotalSubmissions += n
	}
	if stats.TotalForms > 0 {
		stats.OverallCompletionRate = statsCompletionRate
	}
	if stats.TotalSubmissions > 0 {
		stats.AverageTimeToComplete = statsAverageSeconds
	}

	for _, row := range rows {
		title := row.Title
		if doc, ok := decodeForm(row); ok {
			title = doc.Title
		}
		act := &forms.FormActivity{Title: title, Submissions: counts[row.ID]}
		if stats.MostActiveForm == nil || act.Submissions > stats.MostActiveForm.Submissions {
			stats.MostActiveForm = act
		}
		if stats.LeastActiveForm == nil || act.Submissions < stats.LeastActiveForm.Submissions {
			stats.LeastActiveForm = act
		}
	}
	return stats, nil
}

func (s *formService) ownedRow(dbc dbctx.Context, userID, formID uuid.UUID) (*types.Form, error) {
	row, err := s.formRepo.GetByID(dbc, formID)
	if err != nil {
		return nil, fmt.Errorf("load form: %w", err)
	}
	if row == nil {
		return nil, ErrFormNotFound
	}
	if row.UserID != userID {
		return nil, ErrForbidden
	}
	return row, nil
}

func (s *formService) overwrite(dbc dbctx.Context, formID uuid.UUID, form forms.GeneratedForm) (forms.GeneratedForm, error) {
	doc := form.Clone()
	doc.ID = formID.String()
	row, err := formRow(doc)
	if err != nil {
		return forms.GeneratedForm{}, err
	}
	row.ID = formID
	if err := s.formRepo.Overwrite(dbc, row); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return forms.GeneratedForm{}, ErrFormNotFound
		}
		return forms.GeneratedForm{}, fmt.Errorf("update form: %w", err)
	}
	return doc, nil
}

func formRow(doc forms.GeneratedForm) (*types.Form, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	var publishedAt *time.Time
	if doc.PublishedAt != nil {
		t := doc.PublishedAt.UTC()
		publishedAt = &t
	}
	return &types.Form{
		Title:       doc.Title,
		Description: doc.Description,
		Content:     datatypes.JSON(raw),
		Published:   publishedAt != nil,
		PublishedAt: publishedAt,
	}, nil
}

// decodeForm reads the embedded document and puts the row's identity and publish
// timestamp back on it.
func decodeForm(row *types.Form) (forms.GeneratedForm, bool) {
	if row == nil {
		return forms.GeneratedForm{}, false
	}
	raw := bytes.TrimSpace(row.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return forms.GeneratedForm{}, false
	}
	var doc forms.GeneratedForm
	if err := json.Unmarshal(raw, &doc); err != nil {
		return forms.GeneratedForm{}, false
	}
	doc.ID = row.ID.String()
	doc.PublishedAt = nil
	if row.PublishedAt != nil {
		t := *row.PublishedAt
		doc.PublishedAt = &t
	}
	return doc, true
}
