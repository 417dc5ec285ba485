package media

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chatwire/apperr"
)

// DataURI is decoded client media: `data:<content-type>;base64,<payload>`.
type DataURI struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes a base64 data-URI. When the URI declares no media
// type, the content type is sniffed from the decoded bytes. Size is capped
// by maxBytes (0 disables the cap).
func ParseDataURI(s string, maxBytes int64) (*DataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, apperr.ValidationError{Reason: "fileData must be a data URI"}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, apperr.ValidationError{Reason: "malformed data URI"}
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, apperr.ValidationError{Reason: "data URI must be base64 encoded"}
	}
	contentType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperr.ValidationError{Reason: fmt.Sprintf("invalid base64 payload: %v", err)}
	}
	if len(data) == 0 {
		return nil, apperr.ValidationError{Reason: "empty media payload"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, apperr.ValidationError{Reason: fmt.Sprintf("media exceeds %d bytes", maxBytes)}
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return &DataURI{ContentType: contentType, Data: data}, nil
}
