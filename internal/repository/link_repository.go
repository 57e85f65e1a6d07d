package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	FindByAlias(ctx context.Context, alias string) (*domain.Link, error)
	RecordAccess(ctx context.Context, alias string, entry domain.AccessLogEntry) (*domain.Link, error)
}

type GormLinkRepository struct{ db *gorm.DB }

func NewLinkRepository(db *gorm.DB) LinkRepository { return &GormLinkRepository{db: db} }

func (r *GormLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	if link.AccessLog == nil {
		link.AccessLog = []domain.AccessLogEntry{}
	}
	link.Accessed = int64(len(link.AccessLog))
	err := r.db.WithContext(ctx).Create(link).Error
	if isUniqueViolation(err) {
		err = ErrDuplicate
	}
	observability.RecordRepositoryOperation(ctx, "link", "create", outcome(err, ErrLinkNotFound))
	return err
}

func (r *GormLinkRepository) FindByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	var l domain.Link
	err := r.db.WithContext(ctx).Where("alias = ?", alias).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrLinkNotFound
	}
	observability.RecordRepositoryOperation(ctx, "link", "find_by_alias", outcome(err, ErrLinkNotFound))
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// RecordAccess increments the hit counter and appends entry to the access log
// in a single UPDATE, so concurrent hits never lose an increment or an entry.
func (r *GormLinkRepository) RecordAccess(ctx context.Context, alias string, entry domain.AccessLogEntry) (*domain.Link, error) {
	l, err := r.recordAccess(ctx, alias, entry)
	observability.RecordRepositoryOperation(ctx, "link", "record_access", outcome(err, ErrLinkNotFound))
	return l, err
}

func (r *GormLinkRepository) recordAccess(ctx context.Context, alias string, entry domain.AccessLogEntry) (*domain.Link, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode access log entry: %w", err)
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&domain.Link{}).
		Where("alias = ?", alias).
		Updates(map[string]any{
			"accessed":   gorm.Expr("accessed + 1"),
			"access_log": appendJSONExpr(db.Dialector.Name(), string(raw)),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}

	var l domain.Link
	if err := db.Where("alias = ?", alias).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}

func appendJSONExpr(dialect, element string) clause.Expr {
	if dialect == "postgres" {
		return gorm.Expr("COALESCE(access_log, '[]'::jsonb) || jsonb_build_array(?::jsonb)", element)
	}
	return gorm.Expr("json_insert(COALESCE(access_log, '[]'), '$[#]', json(?))", element)
}
