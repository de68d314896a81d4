package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSettings describe the Mongo deployment backing the local store
type MongoSettings struct {
	URI      string
	Database string
	Username string
	Password string
	// ConnectTimeout bounds connect and ping; 10s when zero
	ConnectTimeout time.Duration
}

// ConnectMongo connects, verifies the primary answers, and returns the named database.
// Disconnect through db.Client().
func ConnectMongo(ctx context.Context, s MongoSettings) (*mongo.Database, error) {
	if s.Database == "" {
		return nil, fmt.Errorf("mongodb database name is empty")
	}
	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(s.URI).
		SetAppName("skybound-journeys").
		SetServerSelectionTimeout(timeout)
	if s.Username != "" && s.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: s.Username,
			Password: s.Password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client.Database(s.Database), nil
}
