package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrNotOwner indicates that the caller does not own the property.
	ErrNotOwner = errors.New("caller is not the owner")
	// ErrMalformedPayload indicates a structured field that is not valid JSON.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrValidation indicates a schema or business-rule violation.
	ErrValidation = errors.New("validation failed")
	// ErrRoomMediaMissing indicates a declared room without a matching image group.
	ErrRoomMediaMissing = errors.New("room media missing")
	// ErrMainImageCount indicates the main image group does not hold exactly five files.
	ErrMainImageCount = fmt.Errorf("%w: exactly %d main images are required", ErrValidation, MainImageCount)
	// ErrUploadFailed indicates the remote store rejected or timed out an upload.
	ErrUploadFailed = errors.New("remote upload failed")
	// ErrPersistence indicates the storage layer rejected a write.
	ErrPersistence = errors.New("persistence failed")
	// ErrOptimisticLock indicates a conflict due to concurrent modification.
	ErrOptimisticLock = errors.New("optimistic lock conflict: data was modified by another process")
)

// ValidationError carries the offending field alongside the reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RoomMediaMissingError carries the index of the room declaration that no
// attachment group could be resolved for.
type RoomMediaMissingError struct {
	Index int
}

func (e *RoomMediaMissingError) Error() string {
	return fmt.Sprintf("no images uploaded for room index %d", e.Index)
}

func (e *RoomMediaMissingError) Unwrap() error { return ErrRoomMediaMissing }

// UploadError reports which media group failed to reach the remote store.
type UploadError struct {
	Group string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for group %q: %v", e.Group, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }
