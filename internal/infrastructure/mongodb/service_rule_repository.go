package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// ServiceRuleRepository reads per-warehouse slotting rule sets
type ServiceRuleRepository struct {
	collection *mongo.Collection
}

// NewServiceRuleRepository creates a ServiceRuleRepository
func NewServiceRuleRepository(db *mongo.Database) *ServiceRuleRepository {
	repo := &ServiceRuleRepository{
		collection: db.Collection("service_rules"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ServiceRuleRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// FindByWarehouse returns the rule set for a warehouse, or nil when the
// warehouse runs on defaults
func (r *ServiceRuleRepository) FindByWarehouse(ctx context.Context, warehouseID string) (*domain.ServiceRuleSet, error) {
	var rules domain.ServiceRuleSet
	err := r.collection.FindOne(ctx, bson.M{"warehouseId": warehouseID}).Decode(&rules)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &rules, err
}
