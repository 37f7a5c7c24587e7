// Package database holds the worker's data access layer. Each table gets a
// facade with a narrow interface; all access goes through the process-wide
// gorm pool initialized by pkg/sql.
package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	gberrors "github.com/danielcuellar117/cgs-glassbid-mvp/pkg/errors"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/sql"
)

var (
	// ErrJobNotFound is returned when a job id matches no row.
	ErrJobNotFound = errors.New("job not found")

	// ErrRequestNotFound is returned when a render request id matches no row.
	ErrRequestNotFound = errors.New("render request not found")

	// ErrConflict is wrapped into the error returned on unique-constraint
	// violations; callers test for it with errors.Is.
	ErrConflict = errors.New("conflict")
)

// BaseFacade is the base structure for all facades, providing DB access.
type BaseFacade struct{}

func (f *BaseFacade) getDB() *gorm.DB {
	return sql.GetDefaultDB()
}

// supportsSkipLocked reports whether the connected dialect understands
// FOR UPDATE SKIP LOCKED. The sqlite test harness does not; its single-writer
// model makes the clause unnecessary there.
func supportsSkipLocked(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// dbErr wraps a gorm failure as a coded error, mapping unique-constraint
// violations to the conflict code with ErrConflict in the chain.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return gberrors.NewError().
			WithCode(gberrors.CodeConflictError).
			WithMessage(op).
			WithError(fmt.Errorf("%w: %v", ErrConflict, err))
	}
	return gberrors.NewError().
		WithCode(gberrors.CodeDatabaseError).
		WithMessage(op).
		WithError(err)
}

// isDuplicateKey covers the translated gorm sentinel plus the raw driver
// messages of postgres and the sqlite test harness.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
