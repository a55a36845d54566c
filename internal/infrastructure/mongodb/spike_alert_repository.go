package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// SpikeAlertRepository persists SpikeAlert aggregates
type SpikeAlertRepository struct {
	collection *mongo.Collection
}

// NewSpikeAlertRepository creates a SpikeAlertRepository
func NewSpikeAlertRepository(db *mongo.Database) *SpikeAlertRepository {
	repo := &SpikeAlertRepository{
		collection: db.Collection("spike_alerts"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SpikeAlertRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "alertId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "resolved", Value: 1}, {Key: "detectedAt", Value: -1}}},
		// At most one open alert per SKU and location; repeat detections
		// update the open alert instead of stacking new ones
		{
			Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "skuId", Value: 1}, {Key: "locationId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"resolved": false}),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save inserts a new spike alert
func (r *SpikeAlertRepository) Save(ctx context.Context, alert *domain.SpikeAlert) error {
	alert.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, alert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("open alert already exists for sku %s at %s: %w", alert.SKUID, alert.LocationID, err)
		}
		return fmt.Errorf("failed to save spike alert: %w", err)
	}
	return nil
}

// Update replaces an existing spike alert by alertId
func (r *SpikeAlertRepository) Update(ctx context.Context, alert *domain.SpikeAlert) error {
	alert.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"alertId": alert.AlertID}, alert)
	if err != nil {
		return fmt.Errorf("failed to update spike alert: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// FindOpen returns the unresolved alert for a SKU/location pair, or nil
func (r *SpikeAlertRepository) FindOpen(ctx context.Context, warehouseID, skuID, locationID string) (*domain.SpikeAlert, error) {
	filter := bson.M{
		"warehouseId": warehouseID,
		"skuId":       skuID,
		"locationId":  locationID,
		"resolved":    false,
	}

	var alert domain.SpikeAlert
	err := r.collection.FindOne(ctx, filter).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &alert, err
}

// FindByAlertID returns an alert, or nil when absent
func (r *SpikeAlertRepository) FindByAlertID(ctx context.Context, alertID string) (*domain.SpikeAlert, error) {
	var alert domain.SpikeAlert
	err := r.collection.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &alert, err
}

// FindUnresolvedByWarehouse returns open alerts newest first
func (r *SpikeAlertRepository) FindUnresolvedByWarehouse(ctx context.Context, warehouseID string) ([]*domain.SpikeAlert, error) {
	filter := bson.M{"warehouseId": warehouseID, "resolved": false}

	opts := options.Find().SetSort(bson.D{{Key: "detectedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	alerts := make([]*domain.SpikeAlert, 0)
	err = cursor.All(ctx, &alerts)
	return alerts, err
}
