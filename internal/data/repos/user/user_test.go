package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:        uuid.New(),
			Email:     "  UserRepo@Example.com ",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].Email != "userrepo@example.com" {
		t.Fatalf("Create: unexpected result: %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: got=%+v err=%v", gotByIDs, err)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{"USERREPO@example.com"})
	if err != nil || len(gotByEmails) != 1 {
		t.Fatalf("GetByEmails: got=%+v err=%v", gotByEmails, err)
	}

	exists, err := repo.EmailExists(dbc, "userrepo@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, _ = repo.EmailExists(dbc, "nobody@example.com")
	if exists {
		t.Fatalf("EmailExists: unexpected match")
	}

	if err := repo.UpdateName(dbc, created[0].ID, "C", "D"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if err := repo.UpdatePassword(dbc, created[0].ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastLogin(dbc, created[0].ID, at); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	got, _ := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	u := got[0]
	if u.FirstName != "C" || u.LastName != "D" || u.Password != "new-hash" || u.LastLoginAt == nil || !u.LastLoginAt.Equal(at) {
		t.Fatalf("updates not applied: %+v", u)
	}
}
