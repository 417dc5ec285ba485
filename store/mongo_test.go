package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"chatwire/apperr"
	"chatwire/models"
)

// Full CRUD against Mongo needs a running instance; these cover the query
// construction and validation shared with the real backend.

func TestConversationFilterSymmetric(t *testing.T) {
	f := conversationFilter("alice", "bob")
	or, ok := f["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"sender_id": "alice", "receiver_id": "bob"}, or[0])
	assert.Equal(t, bson.M{"sender_id": "bob", "receiver_id": "alice"}, or[1])
}

func TestValidateMessage(t *testing.T) {
	valid := models.Message{SenderID: "a", ReceiverID: "b", Content: "hi", Kind: models.KindText}
	assert.NoError(t, validateMessage(valid))

	cases := []models.Message{
		{ReceiverID: "b", Content: "hi", Kind: models.KindText},
		{SenderID: "a", Content: "hi", Kind: models.KindText},
		{SenderID: "a", ReceiverID: "b", Kind: models.KindText},
		{SenderID: "a", ReceiverID: "b", Content: "hi", Kind: "gif"},
	}
	for _, msg := range cases {
		var verr apperr.ValidationError
		assert.ErrorAs(t, validateMessage(msg), &verr, "%+v", msg)
	}
}
