package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// sameHourWindow is the slice of each prior day compared against the
// current observation window when computing a baseline. It matches the
// detector's observation window length.
const sameHourWindow = 4 * time.Hour

// PickHistoryRepository aggregates the pick_events collection fed by the
// picking service. The collection is append-only from this service's view.
type PickHistoryRepository struct {
	collection *mongo.Collection
}

// NewPickHistoryRepository creates a PickHistoryRepository
func NewPickHistoryRepository(db *mongo.Database) *PickHistoryRepository {
	repo := &PickHistoryRepository{
		collection: db.Collection("pick_events"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *PickHistoryRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "pickedAt", Value: -1}}},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "skuId", Value: 1}, {Key: "locationId", Value: 1}, {Key: "pickedAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func windowFilter(warehouseID string, window domain.PickWindow) bson.M {
	return bson.M{
		"warehouseId": warehouseID,
		"pickedAt":    bson.M{"$gte": window.From, "$lt": window.To},
	}
}

// AggregatePicks returns per-slot pick statistics over a window. A SKU
// picked from two locations produces two independent stats.
func (r *PickHistoryRepository) AggregatePicks(ctx context.Context, warehouseID string, window domain.PickWindow) ([]domain.PickStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: windowFilter(warehouseID, window)}},
		// Group per slot and clock hour first so the peak hour survives
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"skuId":      "$skuId",
				"locationId": "$locationId",
				"hour":       bson.M{"$dateTrunc": bson.M{"date": "$pickedAt", "unit": "hour"}},
			},
			"count":      bson.M{"$sum": 1},
			"sumSeconds": bson.M{"$sum": "$pickSeconds"},
			"sumMeters":  bson.M{"$sum": "$travelMeters"},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"skuId":      "$_id.skuId",
				"locationId": "$_id.locationId",
			},
			"pickCount":     bson.M{"$sum": "$count"},
			"peakHourPicks": bson.M{"$max": "$count"},
			"sumSeconds":    bson.M{"$sum": "$sumSeconds"},
			"sumMeters":     bson.M{"$sum": "$sumMeters"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"skuId":         "$_id.skuId",
			"locationId":    "$_id.locationId",
			"pickCount":     1,
			"peakHourPicks": 1,
			"avgPickSeconds": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$pickCount", 0}},
				bson.M{"$divide": bson.A{"$sumSeconds", "$pickCount"}},
				0,
			}},
			"avgTravelMeters": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$pickCount", 0}},
				bson.M{"$divide": bson.A{"$sumMeters", "$pickCount"}},
				0,
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "skuId", Value: 1}, {Key: "locationId", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate picks: %w", err)
	}
	defer cursor.Close(ctx)

	stats := make([]domain.PickStat, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}

	hours := window.To.Sub(window.From).Hours()
	if hours <= 0 {
		hours = 1
	}
	for i := range stats {
		stats[i].PicksPerHour = float64(stats[i].PickCount) / hours
	}
	return stats, nil
}

// CountPicks returns the raw pick count for a SKU at a location over a window
func (r *PickHistoryRepository) CountPicks(ctx context.Context, warehouseID, skuID, locationID string, window domain.PickWindow) (int, error) {
	filter := windowFilter(warehouseID, window)
	filter["skuId"] = skuID
	filter["locationId"] = locationID

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return int(count), nil
}

// BaselineSameHourAverage averages the pick counts of the same clock-hour
// window across the preceding days, current day excluded
func (r *PickHistoryRepository) BaselineSameHourAverage(ctx context.Context, warehouseID, skuID, locationID string, at time.Time, days int) (float64, error) {
	if days <= 0 {
		return 0, nil
	}

	var total int64
	for d := 1; d <= days; d++ {
		end := at.Add(-time.Duration(d) * 24 * time.Hour)
		window := domain.PickWindow{From: end.Add(-sameHourWindow), To: end}

		filter := windowFilter(warehouseID, window)
		filter["skuId"] = skuID
		filter["locationId"] = locationID

		count, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			return 0, fmt.Errorf("failed to count baseline day %d: %w", d, err)
		}
		total += count
	}
	return float64(total) / float64(days), nil
}

// ZonePicksPerHour returns the pick rate per zone over a window
func (r *PickHistoryRepository) ZonePicksPerHour(ctx context.Context, warehouseID string, window domain.PickWindow) (map[string]float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: windowFilter(warehouseID, window)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$zone",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate zone rates: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Zone  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	hours := window.To.Sub(window.From).Hours()
	if hours <= 0 {
		hours = 1
	}
	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rates[row.Zone] = float64(row.Count) / hours
	}
	return rates, nil
}

// SKULocationPairs returns every SKU/location pair with activity in the
// window, newest pick per pair included so callers can tell the current
// slot from historical ones
func (r *PickHistoryRepository) SKULocationPairs(ctx context.Context, warehouseID string, window domain.PickWindow) ([]domain.SKULocationPair, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: windowFilter(warehouseID, window)}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"skuId":      "$skuId",
				"locationId": "$locationId",
			},
			"lastPickedAt": bson.M{"$max": "$pickedAt"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"skuId":        "$_id.skuId",
			"locationId":   "$_id.locationId",
			"lastPickedAt": 1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "skuId", Value: 1}, {Key: "locationId", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sku locations: %w", err)
	}
	defer cursor.Close(ctx)

	pairs := make([]domain.SKULocationPair, 0)
	if err := cursor.All(ctx, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}
