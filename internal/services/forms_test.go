package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
)

func TestSaveFormKeepsFreeDocumentID(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	user := d.seedUser(t)

	doc := testutil.SampleForm("Contact")
	saved, err := svc.SaveForm(ctx, user.ID, doc)
	require.NoError(t, err)
	require.Equal(t, doc.ID, saved.ID)

	// Saving the same document again inserts a second row under a new id.
	again, err := svc.SaveForm(ctx, user.ID, doc)
	require.NoError(t, err)
	require.NotEqual(t, doc.ID, again.ID)

	// Non-uuid ids are replaced.
	doc.ID = "form-1"
	third, err := svc.SaveForm(ctx, user.ID, doc)
	require.NoError(t, err)
	_, perr := uuid.Parse(third.ID)
	require.NoError(t, perr)

	list, err := svc.GetUserForms(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
}

func TestReadsUseRowIDOverEmbeddedID(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	user := d.seedUser(t)

	doc := testutil.SampleForm("Drifted")
	doc.ID = "embedded-id-from-the-model"
	published := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	doc.PublishedAt = &published
	row := testutil.SeedForm(t, ctx, d.db, user.ID, doc, time.Now().UTC())
	want := row.ID.String()

	got, err := svc.GetFormByID(ctx, user.ID, row.ID)
	require.NoError(t, err)
	if got.ID != want {
		t.Fatalf("GetFormByID id: got=%q want=%q", got.ID, want)
	}

	public, err := svc.GetPublishedForm(ctx, row.ID)
	require.NoError(t, err)
	if public.ID != want {
		t.Fatalf("GetPublishedForm id: got=%q want=%q", public.ID, want)
	}

	list, err := svc.GetUserForms(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	if list[0].ID != want {
		t.Fatalf("GetUserForms id: got=%q want=%q", list[0].ID, want)
	}
}

func TestGetFormByIDChecksOwner(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	owner := d.seedUser(t)
	other := d.seedUser(t)

	saved, err := svc.SaveForm(ctx, owner.ID, testutil.SampleForm("Mine"))
	require.NoError(t, err)
	id := uuid.MustParse(saved.ID)

	got, err := svc.GetFormByID(ctx, owner.ID, id)
	require.NoError(t, err)
	require.Equal(t, "Mine", got.Title)

	_, err = svc.GetFormByID(ctx, other.ID, id)
	require.True(t, errors.Is(err, ErrForbidden), "got=%v want=ErrForbidden", err)

	_, err = svc.GetFormByID(ctx, owner.ID, uuid.New())
	require.True(t, errors.Is(err, ErrFormNotFound), "got=%v want=ErrFormNotFound", err)

	require.ErrorIs(t, svc.DeleteForm(ctx, other.ID, id), ErrForbidden)
}

func TestPublishRoundTrip(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	user := d.seedUser(t)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	svc.(*formService).now = func() time.Time { return fixed }

	saved, err := svc.SaveForm(ctx, user.ID, testutil.SampleForm("Survey"))
	require.NoError(t, err)
	id := uuid.MustParse(saved.ID)

	_, err = svc.GetPublishedForm(ctx, id)
	require.ErrorIs(t, err, ErrFormNotPublished)

	pub, err := svc.PublishForm(ctx, user.ID, id)
	require.NoError(t, err)
	require.True(t, pub.Published())
	require.True(t, pub.PublishedAt.Equal(fixed))
	require.Equal(t, saved.Fields, pub.Fields)

	public, err := svc.GetPublishedForm(ctx, id)
	require.NoError(t, err)
	require.Equal(t, saved.ID, public.ID)
	require.NotNil(t, public.PublishedAt)

	ids, err := svc.GetPublishedFormIDs(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, ids)

	unpub, err := svc.UnpublishForm(ctx, user.ID, id)
	require.NoError(t, err)
	require.False(t, unpub.Published())

	_, err = svc.GetPublishedForm(ctx, id)
	require.ErrorIs(t, err, ErrFormNotPublished)
	ids, err = svc.GetPublishedFormIDs(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestUpdateFormOverwritesDocument(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	user := d.seedUser(t)

	saved, err := svc.SaveForm(ctx, user.ID, testutil.SampleForm("Before"))
	require.NoError(t, err)
	id := uuid.MustParse(saved.ID)

	edit := saved.Clone()
	edit.ID = "ignored"
	edit.Title = "After"
	edit.Fields = edit.Fields[:1]
	updated, err := svc.UpdateForm(ctx, user.ID, id, edit)
	require.NoError(t, err)
	require.Equal(t, saved.ID, updated.ID)

	got, err := svc.GetFormByID(ctx, user.ID, id)
	require.NoError(t, err)
	require.Equal(t, "After", got.Title)
	require.Len(t, got.Fields, 1)

	row, err := d.forms.GetByID(dbctx.Context{Ctx: ctx}, id)
	require.NoError(t, err)
	require.Equal(t, "After", row.Title)
}

func TestDeleteFormRemovesSubmissionsAndCache(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()
	user := d.seedUser(t)

	saved, err := svc.SaveForm(ctx, user.ID, testutil.SampleForm("Doomed"))
	require.NoError(t, err)
	id := uuid.MustParse(saved.ID)

	subs := NewSubmissionService(d.log, d.forms, d.submissions)
	_, err = subs.SaveSubmission(ctx, id, forms.SubmissionData{"name": forms.StringValue("Ada")}, nil)
	require.NoError(t, err)
	analytics := NewAnalyticsService(d.log, time.Hour, d.forms, d.submissions, d.cache, d.fallbackAI())
	_, err = analytics.GetAnalytics(ctx, user.ID, id, false)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteForm(ctx, user.ID, id))

	dbc := dbctx.Context{Ctx: ctx}
	row, err := d.forms.GetByID(dbc, id)
	require.NoError(t, err)
	require.Nil(t, row)
	left, err := d.submissions.ListByFormID(dbc, id)
	require.NoError(t, err)
	require.Empty(t, left)
	cached, err := d.cache.Get(dbc, id)
	require.NoError(t, err)
	require.Nil(t, cached)

	require.ErrorIs(t, svc.DeleteForm(ctx, user.ID, id), ErrFormNotFound)
}

func TestAggregatedStats(t *testing.T) {
	d := newDeps(t)
	svc := d.formService()
	ctx := context.Background()

	empty := d.seedUser(t)
	stats, err := svc.GetAggregatedStats(ctx, empty.ID)
	require.NoError(t, err)
	require.Equal(t, forms.AggregatedStats{}, stats)

	user := d.seedUser(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.SeedForm(t, ctx, d.db, user.ID, testutil.SampleForm("Quiet"), base)
	busy := testutil.SeedForm(t, ctx, d.db, user.ID, testutil.SampleForm("Busy"), base.Add(time.Hour))
	testutil.SeedForm(t, ctx, d.db, user.ID, testutil.SampleForm("Newest"), base.Add(2*time.Hour))
	for i := 0; i < 3; i++ {
		testutil.SeedSubmission(t, ctx, d.db, busy.ID, forms.SubmissionData{"name": forms.StringValue("x")}, base)
	}

	stats, err = svc.GetAggregatedStats(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalForms)
	require.Equal(t, 3, stats.TotalSubmissions)
	require.Equal(t, statsCompletionRate, stats.OverallCompletionRate)
	require.Equal(t, float64(statsAverageSeconds), stats.AverageTimeToComplete)
	require.Equal(t, &forms.FormActivity{Title: "Busy", Submissions: 3}, stats.MostActiveForm)
	// Newest and Quiet tie at zero; the newest form comes first.
	require.Equal(t, &forms.FormActivity{Title: "Newest", Submissions: 0}, stats.LeastActiveForm)
}
