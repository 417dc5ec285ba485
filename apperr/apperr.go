// Package apperr defines the error taxonomy shared across the storage and
// dispatch layers. The API boundary maps these onto HTTP statuses; anything
// not matching one of them is treated as internal.
package apperr

import "fmt"

// ValidationError rejects a malformed send request, e.g. a message carrying
// neither content nor attachment.
type ValidationError struct{ Reason string }

func (e ValidationError) Error() string { return "validation: " + e.Reason }

// UploadError wraps a failure of the external media host. A message whose
// upload failed is never persisted.
type UploadError struct{ Err error }

func (e UploadError) Error() string { return "media upload failed: " + e.Err.Error() }
func (e UploadError) Unwrap() error { return e.Err }

// NotFoundError reports a reference to an unknown entity, typically the peer
// of a send or list request.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }
