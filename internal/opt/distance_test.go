package opt

import (
	"errors"
	"math"
	"sync"
	"testing"
)

// north returns the point km kilometres due north of (0,0).
func north(km float64) Coordinate {
	return Coordinate{Lat: km / EarthRadiusKm * 180 / math.Pi}
}

func TestDistanceSymmetricAndZero(t *testing.T) {
	pts := []Coordinate{
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: 13.0827, Lng: 80.2707},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
	}
	for _, a := range pts {
		d, err := Distance(a, a)
		if err != nil || d != 0 {
			t.Fatalf("d(%v,%v) = %v, %v; want 0", a, a, d, err)
		}
		for _, b := range pts {
			ab, _ := Distance(a, b)
			ba, _ := Distance(b, a)
			if ab != ba {
				t.Fatalf("asymmetric: d(a,b)=%v d(b,a)=%v", ab, ba)
			}
			if a != b && ab <= 0 {
				t.Fatalf("distinct points at distance %v", ab)
			}
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	d, err := Distance(Coordinate{}, Coordinate{Lat: 1})
	if err != nil {
		t.Fatal(err)
	}
	if want := EarthRadiusKm * math.Pi / 180; math.Abs(d-want) > 1e-9 {
		t.Fatalf("one degree = %v km, want %v", d, want)
	}
	d, _ = Distance(Coordinate{}, north(5))
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("north(5) = %v km", d)
	}
}

func TestDistanceInvalidCoordinate(t *testing.T) {
	bad := []Coordinate{{Lat: 91}, {Lat: -90.5}, {Lng: 180.1}, {Lat: math.NaN()}, {Lng: math.Inf(1)}}
	for _, c := range bad {
		if _, err := Distance(Coordinate{}, c); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("Distance(_, %v) err = %v", c, err)
		}
		if _, err := Distance(c, Coordinate{}); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("Distance(%v, _) err = %v", c, err)
		}
	}
}

func TestDistanceCacheSharesSymmetricPairs(t *testing.T) {
	c := NewDistanceCache(nil)
	a, b := Coordinate{Lat: 1, Lng: 2}, Coordinate{Lat: 3, Lng: 4}
	ab, _ := c.Distance(a, b)
	ba, _ := c.Distance(b, a)
	if ab != ba {
		t.Fatalf("cache asymmetric: %v vs %v", ab, ba)
	}
	if c.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", c.Len())
	}
	if _, err := c.Distance(a, Coordinate{Lat: 100}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("invalid coordinate cached or accepted: %v", err)
	}
}

func TestDistanceCacheConcurrent(t *testing.T) {
	c := NewDistanceCache(Haversine{})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a := Coordinate{Lat: float64(i % 10), Lng: float64(g)}
				b := Coordinate{Lat: float64(g), Lng: float64(i % 7)}
				if _, err := c.Distance(a, b); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() == 0 {
		t.Fatal("cache is empty after concurrent use")
	}
}

func TestBuildMatrixSymmetric(t *testing.T) {
	pts := []Coordinate{{}, north(3), {Lat: 0.01, Lng: 0.02}, north(3)}
	m, err := buildMatrix(Haversine{}, pts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pts {
		if m.at(i, i) != 0 {
			t.Fatalf("diagonal %d = %v", i, m.at(i, i))
		}
		for j := range pts {
			if m.at(i, j) != m.at(j, i) {
				t.Fatalf("m[%d][%d] != m[%d][%d]", i, j, j, i)
			}
		}
	}
	if m.at(1, 3) != 0 {
		t.Fatalf("co-located points at distance %v", m.at(1, 3))
	}
}
