package models

import "errors"

// Errors returned by repositories. Callers match them with errors.Is.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")
)
