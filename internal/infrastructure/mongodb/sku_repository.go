package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// SKURepository reads SKU master data
type SKURepository struct {
	collection *mongo.Collection
}

// NewSKURepository creates a SKURepository
func NewSKURepository(db *mongo.Database) *SKURepository {
	repo := &SKURepository{
		collection: db.Collection("skus"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SKURepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "skuId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// FindBySKUID returns a SKU, or nil when absent
func (r *SKURepository) FindBySKUID(ctx context.Context, warehouseID, skuID string) (*domain.SKU, error) {
	var sku domain.SKU
	err := r.collection.FindOne(ctx, bson.M{"warehouseId": warehouseID, "skuId": skuID}).Decode(&sku)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &sku, err
}

// FindByWarehouse returns all SKUs in a warehouse
func (r *SKURepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.SKU, error) {
	opts := options.Find().SetSort(bson.D{{Key: "skuId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"warehouseId": warehouseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	skus := make([]*domain.SKU, 0)
	err = cursor.All(ctx, &skus)
	return skus, err
}
