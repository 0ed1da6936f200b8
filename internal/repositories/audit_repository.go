package repositories

import (
	"context"

	"github.com/lunaro-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepository persists moderation audit records. The trail is
// append-only and lives outside the relational store: records are written
// after the owning transaction commits, so a lost record never implies a
// lost enforcement action.
type AuditRepository interface {
	Record(ctx context.Context, record *models.AuditRecord) error
	GetByFlagID(ctx context.Context, flagID string) ([]models.AuditRecord, error)
}

// MongoAuditRepository implements AuditRepository for MongoDB
type MongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new MongoAuditRepository
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{collection: db.Collection("audit_records")}
}

// Record appends an audit record
func (r *MongoAuditRepository) Record(ctx context.Context, record *models.AuditRecord) error {
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// GetByFlagID retrieves all audit records attached to a flag
func (r *MongoAuditRepository) GetByFlagID(ctx context.Context, flagID string) ([]models.AuditRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"flag_id": flagID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AuditRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
