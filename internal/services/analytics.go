package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/observability"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

const DefaultAnalyticsTTL = time.Hour

type AnalyticsResult struct {
	Analysis    forms.FormAnalytics `json:"analysis"`
	GeneratedAt time.Time           `json:"generated_at"`
	Cached      bool                `json:"cached"`
}

type AnalyticsService interface {
	// GetAnalytics serves the cached analysis while it is younger than the TTL; force
	// skips the cache.
	GetAnalytics(ctx context.Context, userID, formID uuid.UUID, force bool) (AnalyticsResult, error)
	AskInsights(ctx context.Context, userID, formID uuid.UUID, question string) (string, error)
}

type analyticsService struct {
	log            *logger.Logger
	ttl            time.Duration
	formRepo       repos.FormRepo
	submissionRepo repos.SubmissionRepo
	cacheRepo      repos.AnalyticsCacheRepo
	ai             formgen.Service
	now            func() time.Time
}

func NewAnalyticsService(
	log *logger.Logger,
	ttl time.Duration,
	formRepo repos.FormRepo,
	submissionRepo repos.SubmissionRepo,
	cacheRepo repos.AnalyticsCacheRepo,
	ai formgen.Service,
) AnalyticsService {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}
	return &analyticsService{
		log:            log.With("service", "AnalyticsService"),
		ttl:            ttl,
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
		cacheRepo:      cacheRepo,
		ai:             ai,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *analyticsService) GetAnalytics(ctx context.Context, userID, formID uuid.UUID, force bool) (AnalyticsResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if !force {
		if res, ok, err := s.cached(dbc, userID, formID); err != nil || ok {
			return res, err
		}
	}

	input, err := s.loadInput(ctx, userID, formID)
	if err != nil {
		return AnalyticsResult{}, err
	}
	analysis := s.ai.AnalyzeFormData(ctx, input)
	generatedAt := s.now()

	raw, err := json.Marshal(analysis)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("encode analysis: %w", err)
	}
	if err := s.cacheRepo.Upsert(dbc, &types.AnalyticsCache{
		FormID:      formID,
		Analysis:    datatypes.JSON(raw),
		GeneratedAt: generatedAt,
	}); err != nil {
		// The fresh analysis is still good; the next request regenerates.
		s.log.Warn("Analytics cache write failed", "form_id", formID, "error", err)
	}
	result := "miss"
	if force {
		result = "refresh"
	}
	observability.Current().IncAnalyticsCache(result)
	return AnalyticsResult{Analysis: analysis, GeneratedAt: generatedAt}, nil
}

func (s *analyticsService) AskInsights(ctx context.Context, userID, formID uuid.UUID, question string) (string, error) {
	input, err := s.loadInput(ctx, userID, formID)
	if err != nil {
		return "", err
	}
	return s.ai.GetAIInsights(ctx, question, input), nil
}

// cached returns a fresh cache entry. The owner check runs first so a cache hit never
// leaks another user's analysis.
func (s *analyticsService) cached(dbc dbctx.Context, userID, formID uuid.UUID) (AnalyticsResult, bool, error) {
	row, err := s.formRepo.GetByID(dbc, formID)
	if err != nil {
		return AnalyticsResult{}, false, fmt.Errorf("load form: %w", err)
	}
	if row == nil {
		return AnalyticsResult{}, false, ErrFormNotFound
	}
	if row.UserID != userID {
		return AnalyticsResult{}, false, ErrForbidden
	}

	entry, err := s.cacheRepo.Get(dbc, formID)
	if err != nil {
		s.log.Warn("Analytics cache read failed", "form_id", formID, "error", err)
		return AnalyticsResult{}, false, nil
	}
	if entry == nil {
		return AnalyticsResult{}, false, nil
	}
	if s.now().Sub(entry.GeneratedAt) >= s.ttl {
		observability.Current().IncAnalyticsCache("stale")
		return AnalyticsResult{}, false, nil
	}
	var analysis forms.FormAnalytics
	if err := json.Unmarshal(entry.Analysis, &analysis); err != nil {
		s.log.Warn("Analytics cache entry unreadable", "form_id", formID, "error", err)
		return AnalyticsResult{}, false, nil
	}
	observability.Current().IncAnalyticsCache("hit")
	return AnalyticsResult{Analysis: analysis, GeneratedAt: entry.GeneratedAt, Cached: true}, true, nil
}

// loadInput fetches the form and its submissions concurrently.
func (s *analyticsService) loadInput(ctx context.Context, userID, formID uuid.UUID) (forms.AnalysisInput, error) {
	var (
		row  *types.Form
		subs []*types.FormSubmission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.formRepo.GetByID(dbctx.Context{Ctx: gctx}, formID)
		if err != nil {
			return fmt.Errorf("load form: %w", err)
		}
		row = r
		return nil
	})
	g.Go(func() error {
		rs, err := s.submissionRepo.ListByFormID(dbctx.Context{Ctx: gctx}, formID)
		if err != nil {
			return fmt.Errorf("list submissions: %w", err)
		}
		subs = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return forms.AnalysisInput{}, err
	}
	if row == nil {
		return forms.AnalysisInput{}, ErrFormNotFound
	}
	if row.UserID != userID {
		return forms.AnalysisInput{}, ErrForbidden
	}
	doc, ok := decodeForm(row)
	if !ok {
		return forms.AnalysisInput{}, ErrFormNotFound
	}

	input := forms.AnalysisInput{Form: doc, Submissions: make([]forms.SubmissionRecord, 0, len(subs))}
	for _, sub := range subs {
		rec, err := submissionRecord(sub)
		if err != nil {
			s.log.Warn("Skipping unreadable submission", "submission_id", sub.ID, "error", err)
			continue
		}
		input.Submissions = append(input.Submissions, rec)
	}
	return input, nil
}
