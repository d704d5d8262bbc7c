package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/beluga/internal/model"
)

// LoginSessionCollection はログインセッションを格納するコレクション名。
const LoginSessionCollection = "login_sessions"

// loginSessionDocument はMongoDB上のログインセッション表現。
type loginSessionDocument struct {
	ID           string    `bson:"_id"`
	UserID       int64     `bson:"user_id"`
	IPAddress    string    `bson:"ip_address"`
	LastLocation string    `bson:"last_location"`
	Device       string    `bson:"device"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toLoginSessionDocument(s *model.LoginSession) loginSessionDocument {
	return loginSessionDocument{
		ID:           s.ID,
		UserID:       s.UserID,
		IPAddress:    s.IPAddress,
		LastLocation: s.LastLocation,
		Device:       s.Device,
		ExpiresAt:    s.ExpiresAt.UTC(),
		CreatedAt:    s.CreatedAt.UTC(),
	}
}

func (d loginSessionDocument) toModel() *model.LoginSession {
	return &model.LoginSession{
		ID:           d.ID,
		UserID:       d.UserID,
		IPAddress:    d.IPAddress,
		LastLocation: d.LastLocation,
		Device:       d.Device,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoLoginSessionRepo はMongoDBを使用したログインセッションリポジトリ。
type MongoLoginSessionRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoLoginSessionRepo はMongoLoginSessionRepoを生成する。
func NewMongoLoginSessionRepo(db *mongo.Database) *MongoLoginSessionRepo {
	return &MongoLoginSessionRepo{
		collection: db.Collection(LoginSessionCollection),
		now:        time.Now,
	}
}

// EnsureIndexes はuser_idとexpires_atのインデックスを作成する。
func (r *MongoLoginSessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create login session indexes: %w", err)
	}
	return nil
}

// Create はセッションを作成する。
func (r *MongoLoginSessionRepo) Create(ctx context.Context, session *model.LoginSession) error {
	if _, err := r.collection.InsertOne(ctx, toLoginSessionDocument(session)); err != nil {
		return fmt.Errorf("failed to create login session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MongoLoginSessionRepo) FindByID(ctx context.Context, id string) (*model.LoginSession, error) {
	filter := bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": r.now().UTC()},
	}
	var doc loginSessionDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find login session: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MongoLoginSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete login session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *MongoLoginSessionRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete user login sessions: %w", err)
	}
	return nil
}

// DeleteExpiredBefore はbefore以前に期限切れとなったセッションを削除する。
func (r *MongoLoginSessionRepo) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx,
		bson.M{"expires_at": bson.M{"$lte": before.UTC()}},
		options.Delete(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login sessions: %w", err)
	}
	return result.DeletedCount, nil
}

// compile-time interface check
var _ LoginSessionRepository = (*MongoLoginSessionRepo)(nil)
