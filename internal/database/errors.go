package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
)

// Store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidData   = errors.New("invalid data")
)

// mapError converts pgx/pgconn errors to store errors, prefixed with the
// entity and key they concern. Context errors pass through unchanged.
func mapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, key, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, key, ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w: %w", entity, key, ErrNotFound, core.ErrUnknownCourse)
		case "22P02": // invalid_text_representation, e.g. a malformed UUID key
			return fmt.Errorf("%s %s: %w", entity, key, ErrNotFound)
		case "23514", "23502": // check_violation, not_null_violation
			return fmt.Errorf("%s %s: %w: %s", entity, key, ErrInvalidData, pgErr.Message)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, key, err)
}
