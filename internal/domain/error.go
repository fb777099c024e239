package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotAdmin        = errors.New("user is not an admin")
	ErrNoDraft         = errors.New("no course draft in progress")
)
