package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"chatwire/apperr"
	"chatwire/models"
)

// Mongo backs MessageStore and UserStore with MongoDB collections.
type Mongo struct {
	client   *mongo.Client
	messages *mongo.Collection
	users    *mongo.Collection
}

// NewMongo connects, pings and ensures indexes.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	m := &Mongo{
		client:   client,
		messages: db.Collection("messages"),
		users:    db.Collection("users"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

// Ping health check, used by the readiness endpoint.
func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, readpref.Primary()) }

func (m *Mongo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := validateMessage(msg); err != nil {
		return models.Message{}, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()
	if _, err := m.messages.InsertOne(ctx, msg); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (m *Mongo) ListConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.messages.Find(ctx, conversationFilter(a, b), opts)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Message
	for cur.Next(ctx) {
		var msg models.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, msg)
	}
	return out, cur.Err()
}

func (m *Mongo) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := m.users.FindOne(ctx, bson.M{"user_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (m *Mongo) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	cur, err := m.users.Find(ctx, bson.M{"user_id": bson.M{"$ne": id}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, u)
	}
	return out, cur.Err()
}

// conversationFilter matches messages whose (sender, receiver) pair is (a,b)
// in either direction.
func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_message_id"),
		},
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "receiver_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_conversation"),
		},
	})
	if err != nil {
		return err
	}
	_, err = m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_id"),
	})
	return err
}

func validateMessage(msg models.Message) error {
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return apperr.ValidationError{Reason: "sender and receiver are required"}
	}
	if msg.Content == "" && msg.Attachment == nil {
		return apperr.ValidationError{Reason: "message cannot be empty"}
	}
	if !msg.Kind.Valid() {
		return apperr.ValidationError{Reason: "unknown message kind " + string(msg.Kind)}
	}
	return nil
}
