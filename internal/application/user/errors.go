package user

import "errors"

var (
	// ErrUsernameAlreadyExists is returned when registering a taken username
	ErrUsernameAlreadyExists = errors.New("username already exists")

	// ErrEmailAlreadyExists is returned when registering a taken email
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound is returned when the target or acting user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrNotSystemAdmin is returned when a moderation action is attempted by a non-admin
	ErrNotSystemAdmin = errors.New("only system administrators can perform this operation")

	// ErrSelfModeration is returned when an admin targets their own account
	ErrSelfModeration = errors.New("administrators cannot moderate their own account")
)
