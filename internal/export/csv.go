package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"smartroute/internal/model"
)

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// WriteCSV renders a result as sectioned CSV: summary, one row per route,
// one row per stop, and the unassigned pickup spots when there are any.
func WriteCSV(w io.Writer, res model.OptimizationResult, generated time.Time) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	rows := [][]string{
		{"# SmartRoute Optimization Results"},
		{"# Generated: " + generated.Format("2006-01-02 15:04:05")},
		{""},
		{"# SUMMARY"},
		{"Metric", "Value"},
		{"Total Distance (km)", money(res.TotalDistanceKm)},
		{"Total Cost", money(res.TotalCost)},
		{"Distance Cost", money(res.DistanceCost)},
		{"Vehicles Used", strconv.Itoa(res.TotalVehiclesUsed)},
		{"Total Vehicles Available", strconv.Itoa(res.VehiclesAvailable)},
		{"Unassigned Pickup Spots", strconv.Itoa(len(res.UnassignedSpots))},
		{""},
		{"# ROUTE SUMMARY"},
		{"Vehicle_Name", "Vehicle_Type", "Total_Distance_km", "Total_Cost", "Number_of_Stops", "Total_Workers", "Utilization_Percent", "Route_Sequence"},
	}
	for _, r := range res.Routes {
		names := make([]string, len(r.Stops))
		for i, s := range r.Stops {
			names[i] = s.Name
		}
		rows = append(rows, []string{
			r.VehicleName,
			r.VehicleType,
			money(r.DistanceKm),
			money(r.DistanceCost + r.FixedCost),
			strconv.Itoa(len(r.Stops)),
			strconv.Itoa(r.Load),
			strconv.FormatFloat(r.UtilizationPercent, 'f', 1, 64),
			strings.Join(names, " → "),
		})
	}
	rows = append(rows,
		[]string{""},
		[]string{"# DETAILED STOPS"},
		[]string{"Vehicle_Name", "Stop_Order", "PickupSpot_Name", "PickupSpot_ID", "Workers_Count", "Cumulative_Load", "Latitude", "Longitude"},
	)
	for _, r := range res.Routes {
		for _, s := range r.Stops {
			rows = append(rows, []string{
				r.VehicleName,
				strconv.Itoa(s.ArrivalOrder),
				s.Name,
				s.SpotID,
				strconv.Itoa(s.WorkerCount),
				strconv.Itoa(s.CumulativeLoad),
				strconv.FormatFloat(s.Lat, 'f', 6, 64),
				strconv.FormatFloat(s.Lng, 'f', 6, 64),
			})
		}
	}
	if len(res.UnassignedSpots) > 0 {
		rows = append(rows, []string{""}, []string{"# UNASSIGNED PICKUP SPOTS"}, []string{"PickupSpot_ID", "PickupSpot_Name", "Workers_Count", "Reason"})
		for _, u := range res.UnassignedSpots {
			rows = append(rows, []string{u.SpotID, u.Name, strconv.Itoa(u.WorkerCount), u.Reason})
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Filename is the attachment name for a result exported at t.
func Filename(t time.Time) string {
	return "smartroute_results_" + t.Format("20060102_150405") + ".csv"
}
