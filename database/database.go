package database

import (
	"context"
	"fmt"
	"time"

	"blog/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	connectTimeout    = 15 * time.Second
	disconnectTimeout = 10 * time.Second
	retryDelay        = 2 * time.Second
)

// DB is the process-wide MongoDB handle. It is opened once at startup, shared
// by every request and closed during shutdown.
type DB struct {
	Client *mongo.Client
	Posts  *mongo.Collection
}

// Connect dials MongoDB and pings it, retrying up to cfg.MongoConnectTries times.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*DB, error) {
	tries := cfg.MongoConnectTries
	if tries < 1 {
		tries = 1
	}

	var lastErr error
	for i := 1; i <= tries; i++ {
		db, err := connectOnce(ctx, cfg)
		if err == nil {
			log.Info("connected to MongoDB",
				zap.String("database", cfg.MongoDatabase),
				zap.String("collection", cfg.MongoCollection))
			return db, nil
		}
		lastErr = err
		log.Warn("MongoDB connection attempt failed", zap.Int("attempt", i), zap.Error(err))

		if i < tries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connect to MongoDB after %d attempts: %w", tries, lastErr)
}

func connectOnce(ctx context.Context, cfg *config.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &DB{
		Client: client,
		Posts:  client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
	}, nil
}

// Ping reports whether the server is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Close() error {
	if db == nil || db.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
