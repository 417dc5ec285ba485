package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageKindValid(t *testing.T) {
	assert.True(t, KindText.Valid())
	assert.True(t, KindImage.Valid())
	assert.True(t, KindVoice.Valid())
	assert.False(t, MessageKind("video").Valid())
	assert.False(t, MessageKind("").Valid())
}

func TestMediaKindFor(t *testing.T) {
	assert.Equal(t, MediaImage, MediaKindFor(KindImage))
	assert.Equal(t, MediaAudio, MediaKindFor(KindVoice))
	assert.Equal(t, MediaOther, MediaKindFor(KindText))
}

func TestPayloadKinds(t *testing.T) {
	assert.Equal(t, KindText, TextPayload{Text: "hi"}.Kind())
	assert.Equal(t, KindImage, ImagePayload{DataURI: "data:image/png;base64,AA=="}.Kind())
	assert.Equal(t, KindVoice, VoicePayload{DataURI: "data:audio/webm;base64,AA=="}.Kind())
}

func TestDataURIAccessor(t *testing.T) {
	assert.Equal(t, "", DataURI(TextPayload{Text: "hi"}))
	assert.Equal(t, "data:image/png;base64,AA==", DataURI(ImagePayload{DataURI: "data:image/png;base64,AA=="}))
	assert.Equal(t, "data:audio/webm;base64,AA==", DataURI(VoicePayload{DataURI: "data:audio/webm;base64,AA=="}))
}

func TestMessageJSONShape(t *testing.T) {
	msg := Message{
		ID:         "m1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "hello",
		Kind:       KindText,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(msg)
	assert.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"m1","senderId":"alice","receiverId":"bob",
		"content":"hello","kind":"text","createdAt":"2025-06-01T12:00:00Z"
	}`, string(b))

	msg.Content = ""
	msg.Attachment = &Attachment{URL: "https://cdn.example.com/x.png", MediaKind: MediaImage}
	msg.Kind = KindImage
	b, err = json.Marshal(msg)
	assert.NoError(t, err)
	assert.Contains(t, string(b), `"attachment":{"url":"https://cdn.example.com/x.png","mediaKind":"image"}`)
	assert.NotContains(t, string(b), `"content"`)
}
