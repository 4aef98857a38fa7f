package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/longsangforge/payment-reconciler/internal/domain/reconciliation"
)

const (
	// AuditCollectionName is the name of the reconciliation audit collection in MongoDB
	AuditCollectionName = "reconciliation_audit"
)

// AuditRepository implements the reconciliation.AuditRecorder interface for
// MongoDB. Each webhook transaction leaves one document per delivery, so a
// replayed transaction shows up as multiple records with distinct outcomes.
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) reconciliation.AuditStore {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Record stores the outcome of one reconciled transaction
func (r *AuditRepository) Record(ctx context.Context, record *reconciliation.AuditRecord) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to record reconciliation outcome",
			"external_id", strconv.FormatInt(record.ExternalID, 10),
			"error", err)
		return fmt.Errorf("failed to record reconciliation outcome: %w", err)
	}

	return nil
}

// GetByExternalID retrieves all audit records left by a provider transaction,
// newest first. Replayed deliveries produce one record each.
func (r *AuditRepository) GetByExternalID(ctx context.Context, externalID int64) ([]*reconciliation.AuditRecord, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"external_id": externalID}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit records",
			"external_id", strconv.FormatInt(externalID, 10),
			"error", err)
		return nil, fmt.Errorf("failed to get audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*reconciliation.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode audit records",
			"external_id", strconv.FormatInt(externalID, 10),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	return records, nil
}

// GetByTimeRange retrieves paginated audit records within the specified time window.
// Results are sorted by creation time in descending order for recent-first access.
func (r *AuditRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*reconciliation.AuditRecord, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit records by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get audit records by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*reconciliation.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode audit records",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	return records, nil
}
