// Package mongo は MongoDB をドキュメントストアとして使うリポジトリ実装
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sanosuguru/cinema-ticket-booking/internal/config"
)

// コレクション名
const (
	showroomsCollection = "showrooms"
	usersCollection     = "users"
	pricesCollection    = "ticket_prices"
)

// Connect は MongoDB に接続し、疎通確認したデータベースを返す
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("MongoDB接続に失敗しました: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("MongoDB接続確認に失敗しました: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}
