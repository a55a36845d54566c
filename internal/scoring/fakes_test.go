package scoring

import (
	"context"
	"io"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("slotting-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

type fakeLocationRepo struct {
	locations []*domain.Location
}

func (f *fakeLocationRepo) FindByLocationID(_ context.Context, warehouseID, locationID string) (*domain.Location, error) {
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.LocationID == locationID {
			return loc, nil
		}
	}
	return nil, nil
}

func (f *fakeLocationRepo) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0, len(f.locations))
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *fakeLocationRepo) FindByBand(_ context.Context, warehouseID string, band domain.ErgonomicBand) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0)
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.Band == band {
			out = append(out, loc)
		}
	}
	return out, nil
}

type fakeSKURepo struct {
	skus []*domain.SKU
}

func (f *fakeSKURepo) FindBySKUID(_ context.Context, warehouseID, skuID string) (*domain.SKU, error) {
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID && sku.SKUID == skuID {
			return sku, nil
		}
	}
	return nil, nil
}

func (f *fakeSKURepo) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.SKU, error) {
	out := make([]*domain.SKU, 0, len(f.skus))
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID {
			out = append(out, sku)
		}
	}
	return out, nil
}

type fakeRuleRepo struct {
	rules map[string]*domain.ServiceRuleSet
}

func (f *fakeRuleRepo) FindByWarehouse(_ context.Context, warehouseID string) (*domain.ServiceRuleSet, error) {
	return f.rules[warehouseID], nil
}

type fakeWarehouseRepo struct {
	warehouses []*domain.Warehouse
}

func (f *fakeWarehouseRepo) FindByWarehouseID(_ context.Context, warehouseID string) (*domain.Warehouse, error) {
	for _, w := range f.warehouses {
		if w.WarehouseID == warehouseID {
			return w, nil
		}
	}
	return nil, nil
}

func (f *fakeWarehouseRepo) FindActive(_ context.Context) ([]*domain.Warehouse, error) {
	out := make([]*domain.Warehouse, 0, len(f.warehouses))
	for _, w := range f.warehouses {
		if w.Active {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakePickHistoryRepo struct {
	stats     map[string][]domain.PickStat // keyed by warehouseId
	zoneRates map[string]map[string]float64
	pairs     map[string][]domain.SKULocationPair
}

func (f *fakePickHistoryRepo) AggregatePicks(_ context.Context, warehouseID string, _ domain.PickWindow) ([]domain.PickStat, error) {
	return f.stats[warehouseID], nil
}

func (f *fakePickHistoryRepo) CountPicks(_ context.Context, _, _, _ string, _ domain.PickWindow) (int, error) {
	return 0, nil
}

func (f *fakePickHistoryRepo) BaselineSameHourAverage(_ context.Context, _, _, _ string, _ time.Time, _ int) (float64, error) {
	return 0, nil
}

func (f *fakePickHistoryRepo) ZonePicksPerHour(_ context.Context, warehouseID string, _ domain.PickWindow) (map[string]float64, error) {
	return f.zoneRates[warehouseID], nil
}

func (f *fakePickHistoryRepo) SKULocationPairs(_ context.Context, warehouseID string, _ domain.PickWindow) ([]domain.SKULocationPair, error) {
	return f.pairs[warehouseID], nil
}
