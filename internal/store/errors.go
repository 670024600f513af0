package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("row not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrInvalidSelect     = errors.New("invalid select expression")
	ErrNoRelation        = errors.New("no relation between collections")
	ErrEmptyValues       = errors.New("no values to write")
	ErrInvalidReference  = errors.New("invalid reference")
)

// ReferenceError reports a foreign key value with no matching row in the
// writer's tenant.
type ReferenceError struct {
	Column     string
	Collection string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s does not match any %s record", e.Column, strings.ReplaceAll(e.Collection, "_", " "))
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}
