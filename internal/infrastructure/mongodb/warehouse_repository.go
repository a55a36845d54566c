package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// WarehouseRepository reads warehouse reference data
type WarehouseRepository struct {
	collection *mongo.Collection
}

// NewWarehouseRepository creates a WarehouseRepository
func NewWarehouseRepository(db *mongo.Database) *WarehouseRepository {
	repo := &WarehouseRepository{
		collection: db.Collection("warehouses"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WarehouseRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// FindByWarehouseID returns a warehouse, or nil when absent
func (r *WarehouseRepository) FindByWarehouseID(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.collection.FindOne(ctx, bson.M{"warehouseId": warehouseID}).Decode(&warehouse)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &warehouse, err
}

// FindActive returns all active warehouses in a stable order
func (r *WarehouseRepository) FindActive(ctx context.Context) ([]*domain.Warehouse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "warehouseId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	warehouses := make([]*domain.Warehouse, 0)
	err = cursor.All(ctx, &warehouses)
	return warehouses, err
}
