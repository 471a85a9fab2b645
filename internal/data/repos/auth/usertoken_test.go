package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/formcraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")
	makeToken := func(access, refresh string, exp time.Time) *types.UserToken {
		return &types.UserToken{
			ID:           uuid.New(),
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    exp,
		}
	}

	now := time.Now().UTC()
	t1 := makeToken("access-1", "refresh-1", now.Add(time.Hour))
	t2 := makeToken("access-2", "refresh-2", now.Add(-time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{t1, t2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByAccessTokens(dbc, []string{t1.AccessToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByAccessTokens: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{t1.RefreshToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	n, err := repo.FullDeleteExpired(dbc, now)
	if err != nil || n != 1 {
		t.Fatalf("FullDeleteExpired: n=%d err=%v", n, err)
	}
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{t1.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, _ := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); len(rows) != 0 {
		t.Fatalf("tokens left: %d", len(rows))
	}
}

func TestOAuthNonceRepoConsumeOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOAuthNonceRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	if _, err := repo.Create(dbc, []*types.OAuthNonce{
		{Provider: "google", NonceHash: "h-live", ExpiresAt: now.Add(10 * time.Minute)},
		{Provider: "google", NonceHash: "h-old", ExpiresAt: now.Add(-time.Minute)},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ok, err := repo.Consume(dbc, "google", "h-live", now); err != nil || !ok {
		t.Fatalf("Consume first: ok=%v err=%v", ok, err)
	}
	if ok, _ := repo.Consume(dbc, "google", "h-live", now); ok {
		t.Fatalf("Consume second: nonce accepted twice")
	}
	if ok, _ := repo.Consume(dbc, "google", "h-old", now); ok {
		t.Fatalf("Consume expired: accepted")
	}
	if n, err := repo.FullDeleteExpired(dbc, now); err != nil || n != 1 {
		t.Fatalf("FullDeleteExpired: n=%d err=%v", n, err)
	}
}

func TestUserIdentityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserIdentityRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "identity@example.com")
	if _, err := repo.Create(dbc, []*types.UserIdentity{{UserID: u.ID, Provider: "google", ProviderSub: "sub-1", Email: u.Email}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByProviderSub(dbc, "google", "sub-1")
	if err != nil || got == nil || got.UserID != u.ID {
		t.Fatalf("GetByProviderSub: got=%v err=%v", got, err)
	}
	if got, _ := repo.GetByProviderSub(dbc, "google", "sub-2"); got != nil {
		t.Fatalf("GetByProviderSub: unexpected match")
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: len=%d err=%v", len(rows), err)
	}
}

func TestPasswordResetTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPasswordResetTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "reset@example.com")
	now := time.Now().UTC()
	rows, err := repo.Create(dbc, []*types.PasswordResetToken{{UserID: u.ID, TokenHash: "hash", ExpiresAt: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := rows[0].ID

	if got, err := repo.GetActive(dbc, id, now); err != nil || got == nil {
		t.Fatalf("GetActive: got=%v err=%v", got, err)
	}
	if got, _ := repo.GetActive(dbc, id, now.Add(2*time.Hour)); got != nil {
		t.Fatalf("GetActive after expiry: got a row")
	}
	if ok, err := repo.MarkUsed(dbc, id, now); err != nil || !ok {
		t.Fatalf("MarkUsed: ok=%v err=%v", ok, err)
	}
	if ok, _ := repo.MarkUsed(dbc, id, now); ok {
		t.Fatalf("MarkUsed twice: ok")
	}
	if got, _ := repo.GetActive(dbc, id, now); got != nil {
		t.Fatalf("GetActive after use: got a row")
	}
}
