package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainauth "rentilia/internal/domain/auth"
	domainuser "rentilia/internal/domain/user"
)

type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	col := db.Collection("sessions")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return &SessionStore{col: col}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	doc := bson.M{
		"_id":        sess.Token,
		"user_id":    string(sess.UserID),
		"created_at": sess.CreatedAt,
		"expires_at": sess.ExpiresAt,
	}
	_, err := s.col.UpdateByID(ctx, sess.Token, bson.M{"$set": doc}, upsert())
	return err
}

func (s *SessionStore) ByToken(ctx context.Context, token string) (domainauth.Session, error) {
	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": token}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return domainauth.Session{}, domainauth.ErrSessionNotFound
		}
		return domainauth.Session{}, err
	}
	return domainauth.Session{
		Token:     doc.Token,
		UserID:    domainuser.UserID(doc.UserID),
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": token})
	return err
}

type sessionDocument struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}
