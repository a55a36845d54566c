package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErgonomicBand classifies a location by pick strain risk
type ErgonomicBand string

const (
	BandGreen  ErgonomicBand = "green"
	BandYellow ErgonomicBand = "yellow"
	BandRed    ErgonomicBand = "red"
)

// Penalty returns the base ergonomic penalty for the band
func (b ErgonomicBand) Penalty() float64 {
	switch b {
	case BandGreen:
		return 0.0
	case BandYellow:
		return 0.5
	case BandRed:
		return 1.0
	default:
		return 1.0
	}
}

// WorseThan reports whether b carries a higher penalty than other
func (b ErgonomicBand) WorseThan(other ErgonomicBand) bool {
	return b.Penalty() > other.Penalty()
}

// Valid reports whether the band is one of the known values
func (b ErgonomicBand) Valid() bool {
	switch b {
	case BandGreen, BandYellow, BandRed:
		return true
	}
	return false
}

// Location is a storage slot in a warehouse. Reference data owned by the
// facility service; read-only here.
type Location struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	LocationID         string             `bson:"locationId"`
	WarehouseID        string             `bson:"warehouseId"`
	Zone               string             `bson:"zone"`
	Aisle              string             `bson:"aisle"`
	Rack               int                `bson:"rack"`
	Level              int                `bson:"level"`
	X                  float64            `bson:"x"`
	Y                  float64            `bson:"y"`
	Band               ErgonomicBand      `bson:"ergonomicBand"`
	DistanceFromDock   float64            `bson:"distanceFromDock"`
	DistanceFromPath   float64            `bson:"distanceFromPath"`
	MaxWeightKg        float64            `bson:"maxWeightKg"`
	Equipment          []string           `bson:"equipment,omitempty"`
	CompositeRiskScore float64            `bson:"compositeRiskScore"`
	IncidentCount      int                `bson:"incidentCount"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

// HasEquipment reports whether the location provides the named equipment
func (l *Location) HasEquipment(name string) bool {
	for _, e := range l.Equipment {
		if e == name {
			return true
		}
	}
	return false
}

// SKU is an article master record. Reference data; read-only here.
type SKU struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	SKUID             string             `bson:"skuId"`
	WarehouseID       string             `bson:"warehouseId"`
	FamilyID          string             `bson:"familyId"`
	ClientID          string             `bson:"clientId"`
	WeightKg          float64            `bson:"weightKg"`
	WeightClass       string             `bson:"weightClass"`
	RequiredEquipment []string           `bson:"requiredEquipment,omitempty"`
	IncompatibleWith  []string           `bson:"incompatibleWith,omitempty"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// IncompatibleWithFamily reports whether the SKU's family conflicts with another
func (s *SKU) IncompatibleWithFamily(familyID string) bool {
	if familyID == "" {
		return false
	}
	for _, f := range s.IncompatibleWith {
		if f == familyID {
			return true
		}
	}
	return false
}

// Warehouse is the scoping entity for all slotting operations
type Warehouse struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	WarehouseID string             `bson:"warehouseId"`
	Name        string             `bson:"name"`
	Active      bool               `bson:"active"`
	// Picks-per-hour value treated as the normalization ceiling for frequency
	PeakPicksPerHour float64 `bson:"peakPicksPerHour"`
	// Zone capacity in picks/hour used by the congestion scorer
	ZoneCapacity map[string]float64 `bson:"zoneCapacity,omitempty"`
}

// PickStat is an aggregation read model over historical pick events,
// one entry per (SKU, location) slot
type PickStat struct {
	SKUID          string  `bson:"skuId" json:"skuId"`
	LocationID     string  `bson:"locationId" json:"locationId"`
	PickCount      int     `bson:"pickCount" json:"pickCount"`
	PicksPerHour   float64 `bson:"picksPerHour" json:"picksPerHour"`
	PeakHourPicks  int     `bson:"peakHourPicks" json:"peakHourPicks"`
	AvgPickSeconds float64 `bson:"avgPickSeconds" json:"avgPickSeconds"`
	AvgTravelMeter float64 `bson:"avgTravelMeters" json:"avgTravelMeters"`
}
