package models

import "time"

// MessageKind tags which of Content/Attachment is authoritative for rendering.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVoice MessageKind = "voice"
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVoice:
		return true
	}
	return false
}

// MediaKind classifies externally hosted media referenced by an attachment.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaOther MediaKind = "other"
)

// MediaKindFor maps a message kind to the resource kind requested from the
// media host: image uploads as image, voice as audio, anything else as a
// generic binary.
func MediaKindFor(k MessageKind) MediaKind {
	switch k {
	case KindImage:
		return MediaImage
	case KindVoice:
		return MediaAudio
	default:
		return MediaOther
	}
}

// Attachment references media hosted by the external upload collaborator.
type Attachment struct {
	URL       string    `json:"url" bson:"url"`
	MediaKind MediaKind `json:"mediaKind" bson:"media_kind"`
}

// Message is a single chat message between two users. Immutable once
// persisted; the conversation it belongs to is the unordered pair
// {SenderID, ReceiverID}.
type Message struct {
	ID         string      `json:"id" bson:"message_id"`
	SenderID   string      `json:"senderId" bson:"sender_id"`
	ReceiverID string      `json:"receiverId" bson:"receiver_id"`
	Content    string      `json:"content,omitempty" bson:"content,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty" bson:"attachment,omitempty"`
	Kind       MessageKind `json:"kind" bson:"kind"`
	CreatedAt  time.Time   `json:"createdAt" bson:"created_at"`
}

// User is the summary shape exposed on the contact list. Identity is owned by
// the auth collaborator; this backend only reads it.
type User struct {
	ID         string `json:"id" bson:"user_id"`
	Username   string `json:"username" bson:"username"`
	ProfilePic string `json:"profilePic,omitempty" bson:"profile_pic,omitempty"`
}
