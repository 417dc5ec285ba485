package media

import (
	"context"

	"chatwire/models"
)

// Uploader hands media off to the external host and returns a durable URL.
// A failed upload must leave no observable side effect in this backend.
type Uploader interface {
	Upload(ctx context.Context, kind models.MediaKind, data *DataURI) (string, error)
}
