package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLinkNotFound = errors.New("link not found")
	ErrDuplicate    = errors.New("duplicate record")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func outcome(err error, notFound error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, notFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "conflict"
	default:
		return "error"
	}
}
