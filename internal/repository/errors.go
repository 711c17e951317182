package repository

import "tasklist/internal/apperr"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task does not exist or belongs to
	// someone else; callers cannot tell the two apart.
	ErrTaskNotFound = apperr.New(apperr.KindNotFound, "task not found")

	// ErrUsernameTaken is returned when a username violates the unique index
	ErrUsernameTaken = apperr.New(apperr.KindValidation, "username already taken")
)
