package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

type SubmissionService interface {
	// SaveSubmission appends a row. Values are stored as given; field rules are checked
	// by the public form handler before this is called.
	SaveSubmission(ctx context.Context, formID uuid.UUID, data forms.SubmissionData, completionTime *float64) (forms.SubmissionRecord, error)
	GetFormSubmissions(ctx context.Context, userID, formID uuid.UUID) ([]forms.SubmissionRecord, error)
}

type submissionService struct {
	log            *logger.Logger
	formRepo       repos.FormRepo
	submissionRepo repos.SubmissionRepo
}

func NewSubmissionService(log *logger.Logger, formRepo repos.FormRepo, submissionRepo repos.SubmissionRepo) SubmissionService {
	return &submissionService{
		log:            log.With("service", "SubmissionService"),
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
	}
}

func (s *submissionService) SaveSubmission(ctx context.Context, formID uuid.UUID, data forms.SubmissionData, completionTime *float64) (forms.SubmissionRecord, error) {
	if data == nil {
		data = forms.SubmissionData{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		observability.Current().IncSubmission("error")
		return forms.SubmissionRecord{}, fmt.Errorf("encode submission: %w", err)
	}
	created, err := s.submissionRepo.Create(dbctx.Context{Ctx: ctx}, []*types.FormSubmission{{
		FormID:         formID,
		Data:           datatypes.JSON(raw),
		CompletionTime: completionTime,
	}})
	if err != nil {
		observability.Current().IncSubmission("error")
		return forms.SubmissionRecord{}, fmt.Errorf("save submission: %w", err)
	}
	observability.Current().IncSubmission("saved")
	rec, err := submissionRecord(created[0])
	if err != nil {
		return forms.SubmissionRecord{}, err
	}
	return rec, nil
}

func (s *submissionService) GetFormSubmissions(ctx context.Context, userID, formID uuid.UUID) ([]forms.SubmissionRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
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
	return s.records(dbc, formID)
}

// records loads a form's submissions newest first. Rows whose data no longer decodes are
// skipped with a warning.
func (s *submissionService) records(dbc dbctx.Context, formID uuid.UUID) ([]forms.SubmissionRecord, error) {
	rows, err := s.submissionRepo.ListByFormID(dbc, formID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]forms.SubmissionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := submissionRecord(row)
		if err != nil {
			s.log.Warn("Skipping unreadable submission", "submission_id", row.ID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func submissionRecord(row *types.FormSubmission) (forms.SubmissionRecord, error) {
	data := forms.SubmissionData{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return forms.SubmissionRecord{}, fmt.Errorf("decode submission %s: %w", row.ID, err)
		}
	}
	if data == nil {
		data = forms.SubmissionData{}
	}
	return forms.SubmissionRecord{
		ID:             row.ID.String(),
		Data:           data,
		CompletionTime: row.CompletionTime,
		CreatedAt:      row.CreatedAt,
	}, nil
}
