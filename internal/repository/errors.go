// Package repository holds the job store drivers and the errors they share.
package repository

import "errors"

var (
	// ErrNotFound is returned when no job has the id, the job expired, or a
	// write needs a job that is still processing and there is none.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by Create when the id is taken.
	ErrConflict = errors.New("job already exists")
)
