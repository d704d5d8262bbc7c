package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConnectTimeout はMongoDB接続確認のタイムアウト。
const MongoConnectTimeout = 10 * time.Second

// NewMongoClientOptions はURIとアプリケーション名を設定したクライアントオプションを返す。
func NewMongoClientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName("beluga").
		SetServerSelectionTimeout(MongoConnectTimeout)
}

// OpenMongo はMongoDBに接続し、プライマリへのPingで疎通を確認してデータベースを返す。
// 呼び出し側はdb.Client().Disconnectで接続を閉じること。
func OpenMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, NewMongoClientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, MongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client.Database(dbName), nil
}
