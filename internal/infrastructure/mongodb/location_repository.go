package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// LocationRepository reads location reference data maintained by the
// facility service
type LocationRepository struct {
	collection *mongo.Collection
}

// NewLocationRepository creates a LocationRepository
func NewLocationRepository(db *mongo.Database) *LocationRepository {
	repo := &LocationRepository{
		collection: db.Collection("locations"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LocationRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "locationId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "ergonomicBand", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// FindByLocationID returns a location, or nil when absent
func (r *LocationRepository) FindByLocationID(ctx context.Context, warehouseID, locationID string) (*domain.Location, error) {
	var loc domain.Location
	err := r.collection.FindOne(ctx, bson.M{"warehouseId": warehouseID, "locationId": locationID}).Decode(&loc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &loc, err
}

// FindByWarehouse returns all locations in a warehouse
func (r *LocationRepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Location, error) {
	return r.find(ctx, bson.M{"warehouseId": warehouseID})
}

// FindByBand returns the locations in a warehouse with a given ergonomic band
func (r *LocationRepository) FindByBand(ctx context.Context, warehouseID string, band domain.ErgonomicBand) ([]*domain.Location, error) {
	return r.find(ctx, bson.M{"warehouseId": warehouseID, "ergonomicBand": band})
}

func (r *LocationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "locationId", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := make([]*domain.Location, 0)
	err = cursor.All(ctx, &locations)
	return locations, err
}
