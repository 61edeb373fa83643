package opt

import (
	"fmt"
	"math"
	"sync"
)

// EarthRadiusKm is the mean radius used by the haversine estimate.
const EarthRadiusKm = 6371.0

// Distancer returns the travel distance in kilometres between two points.
// Implementations must be symmetric and deterministic.
type Distancer interface {
	Distance(a, b Coordinate) (float64, error)
}

// Haversine is the great-circle distance on a sphere of EarthRadiusKm.
type Haversine struct{}

func (Haversine) Distance(a, b Coordinate) (float64, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("distance from %v: %w", a, ErrInvalidCoordinate)
	}
	if !b.Valid() {
		return 0, fmt.Errorf("distance to %v: %w", b, ErrInvalidCoordinate)
	}
	return haversineKm(a, b), nil
}

// Distance is the haversine distance in kilometres.
func Distance(a, b Coordinate) (float64, error) {
	return Haversine{}.Distance(a, b)
}

func haversineKm(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return EarthRadiusKm * c
}

// DistanceCache memoizes another Distancer. It is safe for concurrent runs.
type DistanceCache struct {
	base Distancer
	mu   sync.RWMutex
	memo map[[2]Coordinate]float64
}

func NewDistanceCache(base Distancer) *DistanceCache {
	if base == nil {
		base = Haversine{}
	}
	return &DistanceCache{base: base, memo: map[[2]Coordinate]float64{}}
}

func (c *DistanceCache) Distance(a, b Coordinate) (float64, error) {
	k := pairKey(a, b)
	c.mu.RLock()
	d, ok := c.memo[k]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}
	d, err := c.base.Distance(k[0], k[1])
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.memo[k] = d
	c.mu.Unlock()
	return d, nil
}

// Len is the number of memoized pairs.
func (c *DistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}

// pairKey orders the endpoints so (a,b) and (b,a) share an entry.
func pairKey(a, b Coordinate) [2]Coordinate {
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lng < a.Lng) {
		a, b = b, a
	}
	return [2]Coordinate{a, b}
}

// matrix is the per-run distance table. Node 0 is the factory and
// location i is node i+1. It is read-only once built.
type matrix struct {
	n int
	d []float64
}

func buildMatrix(dist Distancer, pts []Coordinate) (matrix, error) {
	n := len(pts)
	m := matrix{n: n, d: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := dist.Distance(pts[i], pts[j])
			if err != nil {
				return matrix{}, err
			}
			m.d[i*n+j] = d
			m.d[j*n+i] = d
		}
	}
	return m, nil
}

func (m matrix) at(i, j int) float64 { return m.d[i*m.n+j] }
