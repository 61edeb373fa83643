package opt

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Coordinate is a point on the sphere in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate is finite and inside the lat/lng ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type Ownership string

const (
	OwnershipSelfOwned Ownership = "Self-owned"
	OwnershipRented    Ownership = "Rented"
)

type Factory struct {
	Name     string     `json:"name" yaml:"name"`
	Location Coordinate `json:"location" yaml:"location"`
}

type Vehicle struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name"`
	Capacity  int       `json:"capacity" yaml:"capacity"`
	CostPerKm float64   `json:"costPerKm" yaml:"cost_per_km"`
	Ownership Ownership `json:"ownership,omitempty" yaml:"ownership"`
}

// PickupLocation is the atomic unit of assignment: all of its workers ride
// the same vehicle.
type PickupLocation struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name,omitempty" yaml:"name"`
	Location Coordinate `json:"location" yaml:"location"`
	Workers  int        `json:"workers" yaml:"workers"`
}

// Problem is the immutable input snapshot of one optimization run.
type Problem struct {
	Factory   Factory          `json:"factory" yaml:"factory"`
	Vehicles  []Vehicle        `json:"vehicles" yaml:"vehicles"`
	Locations []PickupLocation `json:"locations" yaml:"locations"`
}

// Validate rejects inputs the engine cannot reason about.
func (p Problem) Validate() error {
	if !p.Factory.Location.Valid() {
		return fmt.Errorf("factory %q: %w", p.Factory.Name, ErrInvalidCoordinate)
	}
	seen := make(map[string]bool, len(p.Vehicles))
	for i, v := range p.Vehicles {
		switch {
		case v.ID == "":
			return fmt.Errorf("vehicle %d: empty id: %w", i, ErrInvalidInput)
		case seen[v.ID]:
			return fmt.Errorf("vehicle %s: duplicate id: %w", v.ID, ErrInvalidInput)
		case v.Capacity < 0:
			return fmt.Errorf("vehicle %s: negative capacity: %w", v.ID, ErrInvalidInput)
		case !(v.CostPerKm > 0) || math.IsInf(v.CostPerKm, 0):
			return fmt.Errorf("vehicle %s: cost per km must be positive: %w", v.ID, ErrInvalidInput)
		case v.Ownership != "" && v.Ownership != OwnershipSelfOwned && v.Ownership != OwnershipRented:
			return fmt.Errorf("vehicle %s: unknown ownership %q: %w", v.ID, v.Ownership, ErrInvalidInput)
		}
		seen[v.ID] = true
	}
	seen = make(map[string]bool, len(p.Locations))
	for i, l := range p.Locations {
		switch {
		case l.ID == "":
			return fmt.Errorf("location %d: empty id: %w", i, ErrInvalidInput)
		case seen[l.ID]:
			return fmt.Errorf("location %s: duplicate id: %w", l.ID, ErrInvalidInput)
		case l.Workers <= 0:
			return fmt.Errorf("location %s: worker count must be positive: %w", l.ID, ErrInvalidInput)
		case !l.Location.Valid():
			return fmt.Errorf("location %s: %w", l.ID, ErrInvalidCoordinate)
		}
		seen[l.ID] = true
	}
	return nil
}

// Params tunes a run. Start from DefaultParams; a zero VehiclePenalty
// disables the fixed per-vehicle cost.
type Params struct {
	Iterations        int
	DestroyMin        float64 // fraction of assigned locations removed per iteration
	DestroyMax        float64
	VehiclePenalty    float64
	UnassignedPenalty float64 // search objective only, never reported as cost
	InitialAcceptProb float64
	FinalAcceptProb   float64
	TwoOptPasses      int
	Seed              int64 // 0 derives a seed from the clock
	TimeBudget        time.Duration
	Distancer         Distancer
	Logger            *zerolog.Logger
	OnIteration       func(IterationEvent)
}

func DefaultParams() Params {
	return Params{
		Iterations:        100,
		DestroyMin:        0.20,
		DestroyMax:        0.40,
		VehiclePenalty:    1000,
		UnassignedPenalty: 1e6,
		InitialAcceptProb: 0.30,
		FinalAcceptProb:   0.001,
		TwoOptPasses:      2,
	}
}

func (p Params) normalize() (Params, error) {
	d := DefaultParams()
	if p.Iterations <= 0 {
		p.Iterations = d.Iterations
	}
	if p.DestroyMin == 0 && p.DestroyMax == 0 {
		p.DestroyMin, p.DestroyMax = d.DestroyMin, d.DestroyMax
	}
	if p.DestroyMin <= 0 || p.DestroyMax > 1 || p.DestroyMin > p.DestroyMax {
		return p, fmt.Errorf("destroy fraction range [%g, %g]: %w", p.DestroyMin, p.DestroyMax, ErrInvalidInput)
	}
	if p.VehiclePenalty < 0 || math.IsNaN(p.VehiclePenalty) {
		return p, fmt.Errorf("vehicle penalty %g: %w", p.VehiclePenalty, ErrInvalidInput)
	}
	if p.UnassignedPenalty <= 0 {
		p.UnassignedPenalty = d.UnassignedPenalty
	}
	if p.InitialAcceptProb == 0 && p.FinalAcceptProb == 0 {
		p.InitialAcceptProb, p.FinalAcceptProb = d.InitialAcceptProb, d.FinalAcceptProb
	}
	if p.InitialAcceptProb < 0 || p.InitialAcceptProb > 1 || p.FinalAcceptProb < 0 || p.FinalAcceptProb > p.InitialAcceptProb {
		return p, fmt.Errorf("acceptance probabilities %g -> %g: %w", p.InitialAcceptProb, p.FinalAcceptProb, ErrInvalidInput)
	}
	if p.TwoOptPasses < 0 {
		p.TwoOptPasses = 0
	}
	if p.Distancer == nil {
		p.Distancer = Haversine{}
	}
	return p, nil
}

// State is the phase of a run.
type State string

const (
	StateConstructing  State = "constructing"
	StateSearching     State = "searching"
	StateConsolidating State = "consolidating"
	StateValidated     State = "validated"
)

// IterationEvent is reported at every search iteration boundary.
type IterationEvent struct {
	Iteration     int
	Operator      string
	Objective     float64
	BestObjective float64
	Accepted      bool
}

type Stop struct {
	LocationID     string     `json:"locationId"`
	Name           string     `json:"name,omitempty"`
	Location       Coordinate `json:"location"`
	ArrivalOrder   int        `json:"arrivalOrder"`
	Workers        int        `json:"workers"`
	CumulativeLoad int        `json:"cumulativeLoad"`
}

// Route is a vehicle's closed tour factory -> stops -> factory.
type Route struct {
	VehicleID          string    `json:"vehicleId"`
	VehicleName        string    `json:"vehicleName,omitempty"`
	Ownership          Ownership `json:"ownership,omitempty"`
	Capacity           int       `json:"capacity"`
	Load               int       `json:"load"`
	Stops              []Stop    `json:"stops"`
	DistanceKm         float64   `json:"distanceKm"`
	DistanceCost       float64   `json:"distanceCost"`
	FixedCost          float64   `json:"fixedCost"`
	UtilizationPercent float64   `json:"utilizationPercent"`
}

func (r Route) Used() bool { return len(r.Stops) > 0 }

type UnassignedReason string

const (
	ReasonExceedsFleetCapacity UnassignedReason = "exceeds_fleet_capacity"
	ReasonNoRemainingCapacity  UnassignedReason = "no_remaining_capacity"
)

type Unassigned struct {
	LocationID string           `json:"locationId"`
	Name       string           `json:"name,omitempty"`
	Workers    int              `json:"workers"`
	Reason     UnassignedReason `json:"reason"`
}

// Err returns ErrInfeasibleLocation for locations no vehicle could ever carry.
func (u Unassigned) Err() error {
	if u.Reason == ReasonExceedsFleetCapacity {
		return fmt.Errorf("location %s (%d workers): %w", u.LocationID, u.Workers, ErrInfeasibleLocation)
	}
	return nil
}

type CapacityViolation struct {
	VehicleID string `json:"vehicleId"`
	Load      int    `json:"load"`
	Capacity  int    `json:"capacity"`
}

func (v CapacityViolation) Error() string {
	return fmt.Sprintf("vehicle %s carries %d of %d seats: %v", v.VehicleID, v.Load, v.Capacity, ErrCapacityInvariantViolated)
}

func (v CapacityViolation) Unwrap() error { return ErrCapacityInvariantViolated }

// Solution holds one route per input vehicle, in input order, including
// unused vehicles with no stops.
type Solution struct {
	Routes          []Route             `json:"routes"`
	Unassigned      []Unassigned        `json:"unassigned"`
	TotalDistanceKm float64             `json:"totalDistanceKm"`
	DistanceCost    float64             `json:"distanceCost"`
	FixedCost       float64             `json:"fixedCost"`
	TotalCost       float64             `json:"totalCost"`
	VehiclesUsed    int                 `json:"vehiclesUsed"`
	Degraded        bool                `json:"degraded"`
	Violations      []CapacityViolation `json:"violations,omitempty"`
	State           State               `json:"state"`
	Metrics         Metrics             `json:"metrics"`
}

// UsedRoutes returns the routes that carry at least one stop.
func (s Solution) UsedRoutes() []Route {
	out := make([]Route, 0, s.VehiclesUsed)
	for _, r := range s.Routes {
		if r.Used() {
			out = append(out, r)
		}
	}
	return out
}

type Metrics struct {
	Seed                 int64         `json:"seed"`
	Iterations           int           `json:"iterations"`
	RemovalSelects       [2]int        `json:"removalSelects"` // random, worst
	Improvements         int           `json:"improvements"`
	AcceptedWorse        int           `json:"acceptedWorse"`
	Rejected             int           `json:"rejected"`
	InitialCost          float64       `json:"initialCost"`
	SearchCost           float64       `json:"searchCost"`
	FinalCost            float64       `json:"finalCost"`
	InitialVehicles      int           `json:"initialVehicles"`
	SearchVehicles       int           `json:"searchVehicles"`
	FinalVehicles        int           `json:"finalVehicles"`
	ConsolidatedVehicles int           `json:"consolidatedVehicles"`
	BestTrace            []float64     `json:"bestTrace,omitempty"`
	StoppedEarly         bool          `json:"stoppedEarly"`
	Elapsed              time.Duration `json:"elapsed"`
}
