package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateCode: the confirmation code unique index rejected an
	// insert. The caller re-allocates; this never reaches a user.
	ErrDuplicateCode = errors.New("confirmation code already taken")

	// ErrSlotConflict: the station/date/time exclusion constraint rejected
	// the insert; a concurrent commit won the slot.
	ErrSlotConflict = errors.New("slot no longer available")

	// ErrDuplicateIdempotencyKey: a commit with this key already succeeded.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// mapUniqueViolation translates a unique violation into the matching sentinel
// by constraint or column name. Postgres reports a 23505 with the constraint;
// sqlite (local development) only gives "UNIQUE constraint failed: table.col".
// Everything else passes through unchanged.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return err
		}
		switch {
		case strings.Contains(pgErr.ConstraintName, "idx_reservations_code"):
			return ErrDuplicateCode
		case strings.Contains(pgErr.ConstraintName, "idx_reservations_idem"):
			return ErrDuplicateIdempotencyKey
		case strings.Contains(pgErr.ConstraintName, "idx_no_double_booking"):
			return ErrSlotConflict
		}
		return err
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "reservations.confirmation_code"):
		return ErrDuplicateCode
	case strings.Contains(msg, "reservations.idempotency_key"):
		return ErrDuplicateIdempotencyKey
	case strings.Contains(msg, "station_blocks."):
		return ErrSlotConflict
	}
	return err
}
