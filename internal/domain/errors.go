package domain

import "errors"

var (
	// ErrUnauthorized is returned when a caller lacks the required role.
	ErrUnauthorized = errors.New("teacher access required")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrWordNotFound indicates the referenced word card does not exist.
	ErrWordNotFound = errors.New("word not found")

	// ErrEmptyCatalog rejects a manual snapshot of a catalog with no words.
	ErrEmptyCatalog = errors.New("no words to back up")
	// ErrEmptySnapshot rejects restoring from a snapshot with no words.
	ErrEmptySnapshot = errors.New("snapshot is empty")
	// ErrSnapshotNotFound indicates a malformed or missing snapshot name.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCodeNotFound indicates no active enrollment code matches.
	ErrCodeNotFound = errors.New("enrollment code not found")
	// ErrCodeExpired indicates the code exists but its expiry has passed.
	ErrCodeExpired = errors.New("enrollment code expired")
	// ErrCodeExhausted indicates the code's use quota is spent.
	ErrCodeExhausted = errors.New("enrollment code has no uses left")
	// ErrNotOwner rejects code mutations by anyone but the issuing teacher.
	ErrNotOwner = errors.New("not the issuing teacher")
)
