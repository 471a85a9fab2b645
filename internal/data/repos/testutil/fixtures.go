package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SampleForm is a small renderable form with two fields.
func SampleForm(title string) forms.GeneratedForm {
	return forms.GeneratedForm{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "Seeded form",
		Theme:       forms.ThemeModern,
		Language:    forms.DefaultLanguage,
		Fields: []forms.FormField{
			{ID: "name", Type: forms.FieldText, Label: "Name", Required: true},
			{ID: "email", Type: forms.FieldEmail, Label: "Email"},
		},
	}
}

func SeedForm(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, doc forms.GeneratedForm, createdAt time.Time) *types.Form {
	tb.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		tb.Fatalf("marshal form: %v", err)
	}
	row := &types.Form{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       doc.Title,
		Description: doc.Description,
		Content:     datatypes.JSON(raw),
		Published:   doc.PublishedAt != nil,
		PublishedAt: doc.PublishedAt,
		CreatedAt:   createdAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed form: %v", err)
	}
	return row
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, formID uuid.UUID, data forms.SubmissionData, createdAt time.Time) *types.FormSubmission {
	tb.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		tb.Fatalf("marshal submission: %v", err)
	}
	row := &types.FormSubmission{
		ID:        uuid.New(),
		FormID:    formID,
		Data:      datatypes.JSON(raw),
		CreatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return row
}

func PtrTime(v time.Time) *time.Time { return &v }
