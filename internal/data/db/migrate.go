package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/formcraft-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// EnsureIndexes adds the composite and partial indexes gorm tags cannot express.
// The statements are portable between Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_forms_user_created", `CREATE INDEX IF NOT EXISTS idx_forms_user_created ON forms(user_id, created_at DESC);`},
		{"idx_forms_published", `CREATE INDEX IF NOT EXISTS idx_forms_published ON forms(published_at) WHERE published_at IS NOT NULL;`},
		{"idx_form_submissions_form_created", `CREATE INDEX IF NOT EXISTS idx_form_submissions_form_created ON form_submissions(form_id, created_at DESC);`},
		{"idx_conversations_user_updated", `CREATE INDEX IF NOT EXISTS idx_conversations_user_updated ON conversations(user_id, updated_at DESC);`},
		{"idx_chat_messages_conversation_created", `CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation_created ON chat_messages(conversation_id, created_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
