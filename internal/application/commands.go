package application

// CompleteMoveCommand represents the command to complete a move plan
type CompleteMoveCommand struct {
	MoveID               string
	UserID               string
	TravelSecondsSaved   float64
	PickSecondsSaved     float64
	ErgonomicImprovement float64
	Notes                string
}

// GetTonightMovesQuery requests the pending nightly plan for a warehouse
type GetTonightMovesQuery struct {
	WarehouseID string
}

// GetLiveSuggestionsQuery requests open spike alerts with their moves
type GetLiveSuggestionsQuery struct {
	WarehouseID string
}

// GetImpactSummaryQuery requests the realized-impact summary
type GetImpactSummaryQuery struct {
	WarehouseID string
	WindowDays  int
}

// ExplainScoreQuery requests an explained score for a SKU at a location
type ExplainScoreQuery struct {
	WarehouseID string
	SKUID       string
	LocationID  string
}
