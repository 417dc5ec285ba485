// Package dispatch turns a send request into a persisted message plus a
// best-effort push to the recipient's live connection. The store is the
// single source of truth; push failures are swallowed by design and clients
// reconcile by fetching history on open.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chatwire/apperr"
	"chatwire/events"
	"chatwire/media"
	"chatwire/metrics"
	"chatwire/models"
	"chatwire/presence"
	"chatwire/store"
)

// Presence is the read side of the registry needed for delivery.
type Presence interface {
	Lookup(userID string) (presence.Session, bool)
}

// Dispatcher owns the send path. Uploader and publisher may be nil when the
// corresponding collaborator is not configured; a nil uploader rejects media
// payloads.
type Dispatcher struct {
	messages store.MessageStore
	users    store.UserStore
	presence Presence
	uploader media.Uploader
	firehose events.Publisher
	log      *zap.SugaredLogger

	maxContentLen      int
	maxAttachmentBytes int64
}

type Options struct {
	Messages store.MessageStore
	Users    store.UserStore
	Presence Presence
	Uploader media.Uploader
	Firehose events.Publisher
	Log      *zap.SugaredLogger

	MaxContentLength   int
	MaxAttachmentBytes int64
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{
		messages:           opts.Messages,
		users:              opts.Users,
		presence:           opts.Presence,
		uploader:           opts.Uploader,
		firehose:           opts.Firehose,
		log:                opts.Log,
		maxContentLen:      opts.MaxContentLength,
		maxAttachmentBytes: opts.MaxAttachmentBytes,
	}
}

// Send validates the payload, uploads any embedded media, persists the
// message, and pushes it to the recipient when online. The persisted message
// is returned to the sender regardless of push outcome.
func (d *Dispatcher) Send(ctx context.Context, senderID, receiverID string, p models.Payload) (models.Message, error) {
	if _, err := d.users.GetUser(ctx, receiverID); err != nil {
		return models.Message{}, err
	}

	msg, err := d.buildMessage(ctx, senderID, receiverID, p)
	if err != nil {
		return models.Message{}, err
	}

	persisted, err := d.messages.CreateMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	metrics.MessagesSent.Inc()

	d.publish(ctx, persisted)
	d.push(persisted)

	return persisted, nil
}

func (d *Dispatcher) buildMessage(ctx context.Context, senderID, receiverID string, p models.Payload) (models.Message, error) {
	msg := models.Message{SenderID: senderID, ReceiverID: receiverID, Kind: p.Kind()}

	switch v := p.(type) {
	case models.TextPayload:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return models.Message{}, apperr.ValidationError{Reason: "message cannot be empty"}
		}
		if err := d.checkLength(text); err != nil {
			return models.Message{}, err
		}
		msg.Content = text

	case models.ImagePayload, models.VoicePayload:
		caption := captionOf(p)
		if err := d.checkLength(caption); err != nil {
			return models.Message{}, err
		}
		att, err := d.upload(ctx, p)
		if err != nil {
			return models.Message{}, err
		}
		msg.Attachment = att
		if caption == "" {
			// Matches the stored shape of captionless media messages.
			caption = string(p.Kind()) + " message"
		}
		msg.Content = caption

	default:
		return models.Message{}, apperr.ValidationError{Reason: fmt.Sprintf("unsupported payload %T", p)}
	}
	return msg, nil
}

func (d *Dispatcher) upload(ctx context.Context, p models.Payload) (*models.Attachment, error) {
	raw := models.DataURI(p)
	if raw == "" {
		return nil, apperr.ValidationError{Reason: "fileData is required for " + string(p.Kind()) + " messages"}
	}
	if d.uploader == nil {
		return nil, apperr.UploadError{Err: fmt.Errorf("no media host configured")}
	}
	data, err := media.ParseDataURI(raw, d.maxAttachmentBytes)
	if err != nil {
		return nil, err
	}

	kind := models.MediaKindFor(p.Kind())
	url, err := d.uploader.Upload(ctx, kind, data)
	if err != nil {
		metrics.UploadFailures.Inc()
		var uerr apperr.UploadError
		if !errors.As(err, &uerr) {
			err = apperr.UploadError{Err: err}
		}
		return nil, err
	}
	return &models.Attachment{URL: url, MediaKind: kind}, nil
}

// push delivers the newMessage event to the recipient's session, if any.
// Fire and forget: an offline recipient sees the message on the next history
// fetch, and a failed write is only logged and counted.
func (d *Dispatcher) push(msg models.Message) {
	session, ok := d.presence.Lookup(msg.ReceiverID)
	if !ok {
		metrics.PushesSkipped.Inc()
		return
	}
	if err := session.Send(presence.Event{Name: presence.EventNewMessage, Data: msg}); err != nil {
		metrics.PushErrors.Inc()
		d.log.Warnw("push failed", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "err", err)
		return
	}
	metrics.PushesDelivered.Inc()
}

func (d *Dispatcher) publish(ctx context.Context, msg models.Message) {
	if d.firehose == nil {
		return
	}
	if err := d.firehose.Publish(ctx, msg); err != nil {
		d.log.Warnw("firehose publish failed", "message_id", msg.ID, "err", err)
	}
}

func (d *Dispatcher) checkLength(s string) error {
	if d.maxContentLen > 0 && len(s) > d.maxContentLen {
		return apperr.ValidationError{Reason: fmt.Sprintf("content exceeds %d characters", d.maxContentLen)}
	}
	return nil
}

func captionOf(p models.Payload) string {
	switch v := p.(type) {
	case models.ImagePayload:
		return strings.TrimSpace(v.Caption)
	case models.VoicePayload:
		return strings.TrimSpace(v.Caption)
	}
	return ""
}
