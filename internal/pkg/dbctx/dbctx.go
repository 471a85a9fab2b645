package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repositories fall back to their own handle when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// With returns a copy of dbc bound to tx.
func (dbc Context) With(tx *gorm.DB) Context {
	return Context{Ctx: dbc.Ctx, Tx: tx}
}

// DB picks the transaction when present, otherwise fallback, scoped to Ctx.
func (dbc Context) DB(fallback *gorm.DB) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = fallback
	}
	if dbc.Ctx != nil {
		return txx.WithContext(dbc.Ctx)
	}
	return txx
}
