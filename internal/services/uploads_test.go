package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

func TestUploadFile(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	user := d.seedUser(t)
	formSvc := d.formService()

	withFile := testutil.SampleForm("Resume drop")
	withFile.Fields = append(withFile.Fields, forms.FormField{ID: "cv", Type: forms.FieldFile, Label: "CV"})
	saved, err := formSvc.SaveForm(ctx, user.ID, withFile)
	require.NoError(t, err)
	id := uuid.MustParse(saved.ID)

	bucket := newFakeBucket()
	svc := NewUploadService(d.log, bucket, formSvc)
	require.True(t, svc.Enabled())

	// Drafts do not accept uploads.
	_, err = svc.UploadFile(ctx, id, "cv.pdf", "", 3, strings.NewReader("pdf"))
	require.ErrorIs(t, err, ErrFormNotPublished)

	_, err = formSvc.PublishForm(ctx, user.ID, id)
	require.NoError(t, err)

	url, err := svc.UploadFile(ctx, id, "../My CV.pdf", "", 3, strings.NewReader("pdf"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://uploads.test/forms/"+saved.ID+"/"), "got=%q", url)
	require.True(t, strings.HasSuffix(url, "-My_CV.pdf"), "got=%q", url)
	key := strings.TrimPrefix(url, "https://uploads.test/")
	require.Equal(t, "application/pdf", bucket.ctypes[key])

	_, err = svc.UploadFile(ctx, id, "big.bin", "", MaxUploadBytes+1, strings.NewReader(""))
	require.ErrorIs(t, err, ErrFileTooLarge)

	// An understated size is caught while streaming and the object removed.
	before := len(bucket.objects)
	huge := strings.NewReader(strings.Repeat("x", MaxUploadBytes+10))
	_, err = svc.UploadFile(ctx, id, "sneaky.txt", "text/plain", 1, huge)
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Len(t, bucket.objects, before)
}

func TestUploadFileRules(t *testing.T) {
	d := newDeps(t)
	ctx := context.Background()
	user := d.seedUser(t)
	formSvc := d.formService()

	disabled := NewUploadService(d.log, nil, formSvc)
	require.False(t, disabled.Enabled())
	_, err := disabled.UploadFile(ctx, uuid.New(), "a.txt", "", 1, strings.NewReader("a"))
	require.ErrorIs(t, err, ErrUploadsDisabled)

	pub := testutil.SampleForm("No files")
	pub.PublishedAt = testutil.PtrTime(time.Now().UTC())
	row := testutil.SeedForm(t, ctx, d.db, user.ID, pub, time.Now())
	svc := NewUploadService(d.log, newFakeBucket(), formSvc)
	_, err = svc.UploadFile(ctx, row.ID, "a.txt", "", 1, strings.NewReader("a"))
	require.ErrorIs(t, err, ErrNoFileField)
}
