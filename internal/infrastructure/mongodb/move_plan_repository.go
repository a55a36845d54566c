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

// MovePlanRepository persists MovePlan aggregates
type MovePlanRepository struct {
	collection *mongo.Collection
}

// NewMovePlanRepository creates a MovePlanRepository
func NewMovePlanRepository(db *mongo.Database) *MovePlanRepository {
	repo := &MovePlanRepository{
		collection: db.Collection("move_plans"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *MovePlanRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "moveId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "planType", Value: 1}, {Key: "status", Value: 1}, {Key: "priorityRank", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}, {Key: "completedAt", Value: -1}}},
		{Keys: bson.D{{Key: "alertId", Value: 1}}, Options: options.Index().SetSparse(true)},
		// One pending plan per SKU and plan type; new runs must supersede
		// before inserting
		{
			Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "skuId", Value: 1}, {Key: "planType", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.MoveStatusPending}),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save inserts a new move plan
func (r *MovePlanRepository) Save(ctx context.Context, plan *domain.MovePlan) error {
	plan.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pending plan already exists for sku %s: %w", plan.SKUID, err)
		}
		return fmt.Errorf("failed to save move plan: %w", err)
	}
	return nil
}

// Update replaces an existing move plan by moveId
func (r *MovePlanRepository) Update(ctx context.Context, plan *domain.MovePlan) error {
	plan.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"moveId": plan.MoveID}, plan)
	if err != nil {
		return fmt.Errorf("failed to update move plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrMoveNotFound
	}
	return nil
}

// FindByMoveID returns a move plan, or nil when absent
func (r *MovePlanRepository) FindByMoveID(ctx context.Context, moveID string) (*domain.MovePlan, error) {
	var plan domain.MovePlan
	err := r.collection.FindOne(ctx, bson.M{"moveId": moveID}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &plan, err
}

// FindPendingByWarehouse returns pending plans of a type ordered by rank
func (r *MovePlanRepository) FindPendingByWarehouse(ctx context.Context, warehouseID string, planType domain.PlanType) ([]*domain.MovePlan, error) {
	filter := bson.M{
		"warehouseId": warehouseID,
		"planType":    planType,
		"status":      domain.MoveStatusPending,
	}

	opts := options.Find().SetSort(bson.D{{Key: "priorityRank", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := make([]*domain.MovePlan, 0)
	err = cursor.All(ctx, &plans)
	return plans, err
}

// FindPendingBySKU returns pending plans of a type for one SKU
func (r *MovePlanRepository) FindPendingBySKU(ctx context.Context, warehouseID, skuID string, planType domain.PlanType) ([]*domain.MovePlan, error) {
	filter := bson.M{
		"warehouseId": warehouseID,
		"skuId":       skuID,
		"planType":    planType,
		"status":      domain.MoveStatusPending,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := make([]*domain.MovePlan, 0)
	err = cursor.All(ctx, &plans)
	return plans, err
}

// FindCompletedSince returns completed plans with a completion time in range
func (r *MovePlanRepository) FindCompletedSince(ctx context.Context, warehouseID string, since time.Time) ([]*domain.MovePlan, error) {
	filter := bson.M{
		"warehouseId": warehouseID,
		"status":      domain.MoveStatusCompleted,
		"completedAt": bson.M{"$gte": since},
	}

	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := make([]*domain.MovePlan, 0)
	err = cursor.All(ctx, &plans)
	return plans, err
}

// FindByAlertID returns the move plan linked to an alert, or nil
func (r *MovePlanRepository) FindByAlertID(ctx context.Context, alertID string) (*domain.MovePlan, error) {
	var plan domain.MovePlan
	err := r.collection.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &plan, err
}
