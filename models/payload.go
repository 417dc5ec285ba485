package models

// Payload is the tagged variant a send request is narrowed to at the HTTP
// boundary. Each variant carries only its relevant fields; downstream code
// switches on the concrete type and never re-inspects the raw request.
type Payload interface {
	Kind() MessageKind
}

// TextPayload is a plain text message.
type TextPayload struct {
	Text string
}

func (TextPayload) Kind() MessageKind { return KindText }

// ImagePayload carries an image as a base64 data-URI plus an optional caption.
type ImagePayload struct {
	DataURI string
	Caption string
}

func (ImagePayload) Kind() MessageKind { return KindImage }

// VoicePayload carries a recorded voice note as a base64 data-URI.
type VoicePayload struct {
	DataURI string
	Caption string
}

func (VoicePayload) Kind() MessageKind { return KindVoice }

// DataURI returns the embedded media data of p, or "" for variants that carry
// none.
func DataURI(p Payload) string {
	switch v := p.(type) {
	case ImagePayload:
		return v.DataURI
	case VoicePayload:
		return v.DataURI
	}
	return ""
}
