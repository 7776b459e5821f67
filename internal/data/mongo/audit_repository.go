package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/banking-transfer-saga/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_events"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores one observed transfer event. Inserts are idempotent at the
// read side: the audit group may redeliver, and duplicate observations of the
// same (topic, partition, offset) are upserted rather than duplicated.
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"topic":     entry.Topic,
		"partition": entry.Partition,
		"offset":    entry.Offset,
	}

	update := bson.M{"$set": entry}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		r.logger.Error("Failed to record audit entry",
			"transfer_id", entry.TransferID,
			"topic", entry.Topic,
			"offset", entry.Offset,
			"error", err)
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// GetByTransferID retrieves the full observed history of one transfer in
// observation order.
func (r *AuditRepository) GetByTransferID(ctx context.Context, transferID string) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	opts := options.Find().SetSort(bson.D{{Key: "observed_at", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"transfer_id": transferID}, opts)
	if err != nil {
		r.logger.Error("Failed to query audit entries",
			"transfer_id", transferID,
			"error", err)
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// GetByTimeRange retrieves audit entries observed within the given window
func (r *AuditRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"observed_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "observed_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query audit entries by time range", "error", err)
		return nil, fmt.Errorf("failed to query audit entries by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// CountByTopic returns how many events were observed on one topic
func (r *AuditRepository) CountByTopic(ctx context.Context, topic string) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"topic": topic})
	if err != nil {
		r.logger.Error("Failed to count audit entries", "topic", topic, "error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
