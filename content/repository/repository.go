package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/janushq/janus/content/domain"
	"gorm.io/gorm"
)

// ContentGormRepository implements domain.ContentRepository on GORM. It works
// against both the sqlite and postgres dialectors configured in core/database.
type ContentGormRepository struct {
	db *gorm.DB
}

func NewContentGormRepository(db *gorm.DB) *ContentGormRepository {
	return &ContentGormRepository{db: db}
}

var _ domain.ContentRepository = (*ContentGormRepository)(nil)

func (r *ContentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&campaignModel{},
		&postModel{},
		&variantModel{},
		&metricModel{},
	)
}

// nullStringValue returns a trimmed string or empty if null to prevent legacy data panics.
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return strings.TrimSpace(ns.String)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
