package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// uniqueViolationCode は PostgreSQL の unique_violation
const uniqueViolationCode = "23505"

// isUniqueViolation は一意制約違反かどうかを判定します。
// TranslateError を有効にしていない接続や lib/pq 経由の接続でも判定できるようにしている。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return true
	}
	// SQLite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
