package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

const (
	collectionSessionEvents = "session_events"
	auditRetention          = 90 * 24 * time.Hour
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionSessionEvents)}
}

// InsertSessionEvent appends an entry to the session audit trail.
func (r *AuditRepository) InsertSessionEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toSessionEventDoc(event)); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup and retention indexes on session_events.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toSessionEventDoc(event *domain.SessionEvent) bson.M {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	doc := bson.M{
		"kind":       string(event.Kind),
		"session_id": event.SessionID,
		"user_id":    event.UserID,
		"email":      event.Email,
		"at":         at.UTC(),
	}
	if event.Role != "" {
		doc["role"] = event.Role
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	return doc
}
