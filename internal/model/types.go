package model

import "time"

// Vehicle ownership classes accepted by the API.
const (
	VehicleSelfOwned = "Self-owned"
	VehicleRented    = "Rented"
)

type Factory struct {
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type VehicleInput struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Capacity  int     `json:"capacity"`
	CostPerKm float64 `json:"costPerKm"`
}

type Vehicle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Capacity  int       `json:"capacity"`
	CostPerKm float64   `json:"costPerKm"`
	CreatedAt time.Time `json:"createdAt"`
}

type PickupSpotInput struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	WorkerCount int     `json:"workerCount"`
}

type PickupSpot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	WorkerCount int       `json:"workerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BulkVehiclesRequest struct {
	Vehicles []VehicleInput `json:"vehicles"`
}

type BulkPickupSpotsRequest struct {
	PickupSpots []PickupSpotInput `json:"pickupSpots"`
}

// SessionConfig is everything a session has configured so far.
type SessionConfig struct {
	SessionID   string       `json:"sessionId"`
	Factory     *Factory     `json:"factory,omitempty"`
	Vehicles    []Vehicle    `json:"vehicles"`
	PickupSpots []PickupSpot `json:"pickupSpots"`
}

// Missing names the parts still required before optimization can run.
func (c SessionConfig) Missing() []string {
	var out []string
	if c.Factory == nil {
		out = append(out, "factory")
	}
	if len(c.Vehicles) == 0 {
		out = append(out, "vehicles")
	}
	if len(c.PickupSpots) == 0 {
		out = append(out, "pickupSpots")
	}
	return out
}

func (c SessionConfig) Complete() bool { return len(c.Missing()) == 0 }

// Step is the setup progress: 1 factory, 2 vehicles, 3 pickup spots, 4 ready.
func (c SessionConfig) Step() int {
	switch {
	case c.Factory == nil:
		return 1
	case len(c.Vehicles) == 0:
		return 2
	case len(c.PickupSpots) == 0:
		return 3
	}
	return 4
}

type ConfigStatus struct {
	SessionConfig
	IsComplete   bool     `json:"isComplete"`
	SetupStep    int      `json:"step"`
	MissingParts []string `json:"missing,omitempty"`
	TotalWorkers int      `json:"totalWorkers"`
	TotalSeats   int      `json:"totalSeats"`
}

type OptimizeRequest struct {
	Iterations     int      `json:"iterations,omitempty"`
	DestroyMin     float64  `json:"destroyMin,omitempty"`
	DestroyMax     float64  `json:"destroyMax,omitempty"`
	VehiclePenalty *float64 `json:"vehiclePenalty,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
	TimeBudgetMs   int      `json:"timeBudgetMs,omitempty"`
	TwoOptPasses   *int     `json:"twoOptPasses,omitempty"`
}

type RouteStop struct {
	SpotID         string  `json:"spotId"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	WorkerCount    int     `json:"workerCount"`
	ArrivalOrder   int     `json:"arrivalOrder"`
	CumulativeLoad int     `json:"cumulativeLoad"`
}

type RouteResult struct {
	VehicleID          string      `json:"vehicleId"`
	VehicleName        string      `json:"vehicleName"`
	VehicleType        string      `json:"vehicleType"`
	Stops              []RouteStop `json:"stops"`
	DistanceKm         float64     `json:"distanceKm"`
	DistanceCost       float64     `json:"distanceCost"`
	FixedCost          float64     `json:"fixedCost"`
	Load               int         `json:"load"`
	MaxPassengers      int         `json:"maxPassengers"`
	UtilizationPercent float64     `json:"utilizationPercent"`
	DurationMinutes    float64     `json:"durationMinutes"`
	RouteColor         string      `json:"routeColor"`
}

type UnassignedSpot struct {
	SpotID      string `json:"spotId"`
	Name        string `json:"name"`
	WorkerCount int    `json:"workerCount"`
	Reason      string `json:"reason"`
}

type OptimizationResult struct {
	RunID             string           `json:"runId"`
	SessionID         string           `json:"sessionId"`
	Factory           Factory          `json:"factory"`
	Routes            []RouteResult    `json:"routes"`
	UnassignedSpots   []UnassignedSpot `json:"unassignedSpots"`
	TotalDistanceKm   float64          `json:"totalDistanceKm"`
	DistanceCost      float64          `json:"distanceCost"`
	TotalCost         float64          `json:"totalCost"`
	TotalVehiclesUsed int              `json:"totalVehiclesUsed"`
	VehiclesAvailable int              `json:"vehiclesAvailable"`
	Degraded          bool             `json:"degraded"`
	Violations        []string         `json:"violations,omitempty"`
	Seed              int64            `json:"seed"`
	Iterations        int              `json:"iterations"`
	ComputeMs         int64            `json:"computeMs"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// PlanMetrics is the stored search telemetry of one run.
type PlanMetrics struct {
	RunID                string    `json:"runId"`
	SessionID            string    `json:"sessionId"`
	Seed                 int64     `json:"seed"`
	Iterations           int       `json:"iterations"`
	Improvements         int       `json:"improvements"`
	AcceptedWorse        int       `json:"acceptedWorse"`
	Rejected             int       `json:"rejected"`
	RemovalSelects       [2]int    `json:"removalSelects"`
	InitialCost          float64   `json:"initialCost"`
	SearchCost           float64   `json:"searchCost"`
	FinalCost            float64   `json:"finalCost"`
	InitialVehicles      int       `json:"initialVehicles"`
	SearchVehicles       int       `json:"searchVehicles"`
	FinalVehicles        int       `json:"finalVehicles"`
	ConsolidatedVehicles int       `json:"consolidatedVehicles"`
	StoppedEarly         bool      `json:"stoppedEarly"`
	ElapsedMs            int64     `json:"elapsedMs"`
	CreatedAt            time.Time `json:"createdAt"`
}
