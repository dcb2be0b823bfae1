package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPostNotFound     = fmt.Errorf("post %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrUnauthorized     = errors.New("not authorized")
	ErrValidation       = errors.New("validation failed")
)
