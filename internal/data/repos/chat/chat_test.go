package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/chat"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
)

func TestConversationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConversationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "convrepo@example.com")
	rows, err := repo.Create(dbc, []*types.Conversation{
		{UserID: u.ID, Title: chat.DefaultConversationTitle},
		{UserID: u.ID, Title: "Second"},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Create: rows=%d err=%v", len(rows), err)
	}

	later := time.Now().UTC().Add(time.Hour)
	if err := repo.Touch(dbc, rows[0].ID, later); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	list, err := repo.ListByUserID(dbc, u.ID)
	if err != nil || len(list) != 2 || list[0].ID != rows[0].ID {
		t.Fatalf("ListByUserID: want touched conversation first, err=%v", err)
	}

	if err := repo.UpdateTitle(dbc, rows[1].ID, "Renamed"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	got, err := repo.GetByID(dbc, rows[1].ID)
	if err != nil || got == nil || got.Title != "Renamed" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if err := repo.UpdateTitle(dbc, uuid.New(), "x"); err == nil {
		t.Fatalf("UpdateTitle on a missing row should fail")
	}
}

func TestChatMessageRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewChatMessageRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "msgrepo@example.com")
	conv := &types.Conversation{UserID: u.ID, Title: "t"}
	if err := tx.Create(conv).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err := repo.Create(dbc, []*types.ChatMessage{
		{ConversationID: conv.ID, UserID: u.ID, Role: chat.RoleAssistant, Content: "second", Metadata: datatypes.JSON(`{"form_ids":["a","b"]}`), CreatedAt: base.Add(time.Second)},
		{ConversationID: conv.ID, UserID: u.ID, Role: chat.RoleUser, Content: "first", CreatedAt: base},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := repo.ListByConversationID(dbc, conv.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByConversationID: len=%d err=%v", len(list), err)
	}
	if list[0].Content != "first" || list[1].Content != "second" {
		t.Fatalf("want oldest first, got %q then %q", list[0].Content, list[1].Content)
	}
}
