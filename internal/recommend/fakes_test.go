package recommend

import (
	"context"
	"io"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("slotting-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

type fixture struct {
	warehouse *domain.Warehouse
	locations []*domain.Location
	skus      []*domain.SKU
	stats     []domain.PickStat
	pairs     []domain.SKULocationPair
	zoneRates map[string]float64
	rules     *domain.ServiceRuleSet
}

func (f fixture) engine() *scoring.Engine {
	return scoring.NewEngine(
		fixtureLocations{f.locations},
		fixtureSKUs{f.skus},
		fixtureRules{f.rules},
		fixtureWarehouses{f.warehouse},
		fixturePickHistory{f},
		domain.DefaultWeights(),
		testLogger(),
	)
}

type fixtureLocations struct{ locations []*domain.Location }

func (f fixtureLocations) FindByLocationID(_ context.Context, warehouseID, locationID string) (*domain.Location, error) {
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.LocationID == locationID {
			return loc, nil
		}
	}
	return nil, nil
}

func (f fixtureLocations) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0, len(f.locations))
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f fixtureLocations) FindByBand(_ context.Context, warehouseID string, band domain.ErgonomicBand) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0)
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.Band == band {
			out = append(out, loc)
		}
	}
	return out, nil
}

type fixtureSKUs struct{ skus []*domain.SKU }

func (f fixtureSKUs) FindBySKUID(_ context.Context, warehouseID, skuID string) (*domain.SKU, error) {
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID && sku.SKUID == skuID {
			return sku, nil
		}
	}
	return nil, nil
}

func (f fixtureSKUs) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.SKU, error) {
	out := make([]*domain.SKU, 0, len(f.skus))
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID {
			out = append(out, sku)
		}
	}
	return out, nil
}

type fixtureRules struct{ rules *domain.ServiceRuleSet }

func (f fixtureRules) FindByWarehouse(_ context.Context, _ string) (*domain.ServiceRuleSet, error) {
	return f.rules, nil
}

type fixtureWarehouses struct{ warehouse *domain.Warehouse }

func (f fixtureWarehouses) FindByWarehouseID(_ context.Context, warehouseID string) (*domain.Warehouse, error) {
	if f.warehouse != nil && f.warehouse.WarehouseID == warehouseID {
		return f.warehouse, nil
	}
	return nil, nil
}

func (f fixtureWarehouses) FindActive(_ context.Context) ([]*domain.Warehouse, error) {
	if f.warehouse == nil || !f.warehouse.Active {
		return nil, nil
	}
	return []*domain.Warehouse{f.warehouse}, nil
}

type fixturePickHistory struct{ f fixture }

func (p fixturePickHistory) AggregatePicks(_ context.Context, _ string, _ domain.PickWindow) ([]domain.PickStat, error) {
	return p.f.stats, nil
}

func (p fixturePickHistory) CountPicks(_ context.Context, _, _, _ string, _ domain.PickWindow) (int, error) {
	return 0, nil
}

func (p fixturePickHistory) BaselineSameHourAverage(_ context.Context, _, _, _ string, _ time.Time, _ int) (float64, error) {
	return 0, nil
}

func (p fixturePickHistory) ZonePicksPerHour(_ context.Context, _ string, _ domain.PickWindow) (map[string]float64, error) {
	return p.f.zoneRates, nil
}

func (p fixturePickHistory) SKULocationPairs(_ context.Context, _ string, _ domain.PickWindow) ([]domain.SKULocationPair, error) {
	return p.f.pairs, nil
}
