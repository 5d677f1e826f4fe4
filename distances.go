package tspmip

import (
	"math"

	"github.com/pkg/errors"
)

const (
	EUC_2D   = "EUC_2D"
	CEIL_2D  = "CEIL_2D"
	EXACT_2D = "EXACT_2D"
)

// Distances is the symmetric distance table of an instance. Only the strict lower
// triangle is stored; it is filled once and never written again.
type Distances struct {
	n    int
	rows [][]float64
}

func NewDistances(coordinates [][]float64, distType string) *Distances {
	n := len(coordinates)
	d := alloc(n)
	for node := 1; node < n; node++ {
		for node2 := 0; node2 < node; node2++ {
			xDist := coordinates[node][0] - coordinates[node2][0]
			yDist := coordinates[node][1] - coordinates[node2][1]
			distance := math.Sqrt(xDist*xDist + yDist*yDist)
			switch distType {
			case EUC_2D:
				distance = float64(int(distance + 0.5))
			case CEIL_2D:
				distance = math.Ceil(distance)
			}
			d.rows[node-1][node2] = distance
		}
	}
	return d
}

// NewDistancesFromMatrix copies the lower triangle of an explicit symmetric matrix.
func NewDistancesFromMatrix(m [][]float64) (*Distances, error) {
	n := len(m)
	d := alloc(n)
	for i := 0; i < n; i++ {
		if len(m[i]) != n {
			return nil, errors.Errorf("row %d has %d entries, expected %d", i, len(m[i]), n)
		}
		if m[i][i] != 0 {
			return nil, errors.Errorf("non-zero diagonal at %d", i)
		}
		for j := 0; j < i; j++ {
			if m[i][j] != m[j][i] {
				return nil, errors.Errorf("asymmetric entry (%d,%d): %v != %v", i, j, m[i][j], m[j][i])
			}
			if m[i][j] < 0 || math.IsNaN(m[i][j]) {
				return nil, errors.Errorf("invalid distance (%d,%d): %v", i, j, m[i][j])
			}
			d.rows[i-1][j] = m[i][j]
		}
	}
	return d, nil
}

func alloc(n int) *Distances {
	d := &Distances{n: n}
	if n > 1 {
		d.rows = make([][]float64, n-1)
		for i := range d.rows {
			d.rows[i] = make([]float64, i+1)
		}
	}
	return d
}

func (d *Distances) N() int {
	return d.n
}

func (d *Distances) Dist(i, j int) float64 {
	if i == j {
		return 0
	}
	if i < j {
		return d.rows[j-1][i]
	}
	return d.rows[i-1][j]
}

// EdgeCosts returns the distance of every edge variable in column order.
func (d *Distances) EdgeCosts() []float64 {
	costs := make([]float64, EdgeCount(d.n))
	for i := 0; i < d.n; i++ {
		for j := i + 1; j < d.n; j++ {
			costs[EdgeIndex(i, j, d.n)] = d.Dist(i, j)
		}
	}
	return costs
}
