package api

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"smartroute/internal/model"
)

func validateSessionID(id string) error {
	if id == "" || len(id) > 64 {
		return fmt.Errorf("session id must be 1-64 characters")
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return fmt.Errorf("session id may contain only letters, digits, '-' and '_'")
		}
	}
	return nil
}

func validateName(what, name string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 || n > max {
		return fmt.Errorf("%s name must be 1-%d characters", what, max)
	}
	return nil
}

func validateLatLng(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("lng must be between -180 and 180")
	}
	return nil
}

func validateFactory(f *model.Factory) error {
	if err := validateName("factory", f.Name, 50); err != nil {
		return err
	}
	return validateLatLng(f.Lat, f.Lng)
}

func validateVehicleInput(v *model.VehicleInput) error {
	if err := validateName("vehicle", v.Name, 100); err != nil {
		return err
	}
	if v.Type == "" {
		v.Type = model.VehicleSelfOwned
	}
	if v.Type != model.VehicleSelfOwned && v.Type != model.VehicleRented {
		return fmt.Errorf("invalid vehicle type: %s (allowed: %s, %s)", v.Type, model.VehicleSelfOwned, model.VehicleRented)
	}
	if v.Capacity < 1 || v.Capacity > 100 {
		return fmt.Errorf("capacity must be between 1 and 100")
	}
	if !(v.CostPerKm > 0) || v.CostPerKm > 1000 {
		return fmt.Errorf("costPerKm must be > 0 and <= 1000")
	}
	return nil
}

func validatePickupSpotInput(p *model.PickupSpotInput) error {
	if err := validateName("pickup spot", p.Name, 50); err != nil {
		return err
	}
	if err := validateLatLng(p.Lat, p.Lng); err != nil {
		return err
	}
	if p.WorkerCount < 1 || p.WorkerCount > 500 {
		return fmt.Errorf("workerCount must be between 1 and 500")
	}
	return nil
}

func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if req.Iterations < 0 || req.Iterations > 10000 {
		return fmt.Errorf("iterations must be between 0 and 10000")
	}
	if req.DestroyMin != 0 || req.DestroyMax != 0 {
		if req.DestroyMin <= 0 || req.DestroyMax > 1 || req.DestroyMin > req.DestroyMax {
			return fmt.Errorf("destroy fractions must satisfy 0 < destroyMin <= destroyMax <= 1")
		}
	}
	if req.VehiclePenalty != nil && *req.VehiclePenalty < 0 {
		return fmt.Errorf("vehiclePenalty must be >= 0")
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.TwoOptPasses != nil && *req.TwoOptPasses < 0 {
		return fmt.Errorf("twoOptPasses must be >= 0")
	}
	return nil
}
