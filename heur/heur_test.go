package heur

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/sec"
)

func random(n int, seed int64) *tspmip.Distances {
	rng := rand.New(rand.NewSource(seed))
	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = []float64{rng.Float64() * 1000, rng.Float64() * 1000}
	}
	return tspmip.NewDistances(coords, tspmip.EXACT_2D)
}

func TestNearestNeighbor(t *testing.T) {
	d := tspmip.NewDistances([][]float64{{0, 0}, {1, 0}, {-1, 0}, {5, 0}}, tspmip.EXACT_2D)
	tour := NearestNeighbor(d, 0)
	assert.Equal(t, []int{0, 1, 2, 3}, tour.Path)
	assert.NoError(t, tour.Check(d))

	tour = NearestNeighbor(d, 3)
	assert.Equal(t, []int{3, 1, 0, 2}, tour.Path)
}

func TestBestStart(t *testing.T) {
	d := random(30, 3)
	best := BestStart(d, time.Time{})
	require.NoError(t, best.Check(d))
	for s := 0; s < d.N(); s++ {
		assert.LessOrEqual(t, best.Cost, NearestNeighbor(d, s).Cost)
	}

	expired := BestStart(d, time.Now().Add(-time.Second))
	assert.NoError(t, expired.Check(d))
}

func TestTwoOpt_Uncrosses(t *testing.T) {
	d := tspmip.NewDistances([][]float64{{0, 0}, {0, 2}, {2, 2}, {2, 0}}, tspmip.EXACT_2D)
	crossed := tspmip.NewTour(d, []int{0, 2, 1, 3})
	assert.InDelta(t, 4+4*math.Sqrt2, crossed.Cost, 1e-12)

	tour := TwoOpt(d, crossed, time.Time{})
	assert.Equal(t, []int{0, 1, 2, 3}, tour.Path)
	assert.InDelta(t, 8, tour.Cost, 1e-12)
	assert.Equal(t, []int{0, 2, 1, 3}, crossed.Path)
}

func TestTwoOpt_Random(t *testing.T) {
	d := random(60, 11)
	rng := rand.New(rand.NewSource(5))
	start := tspmip.NewTour(d, rng.Perm(60))

	tour := TwoOpt(d, start, time.Now().Add(time.Minute))
	require.NoError(t, tour.Check(d))
	assert.Less(t, tour.Cost, start.Cost)

	again := TwoOpt(d, tour, time.Time{})
	assert.InDelta(t, tour.Cost, again.Cost, 1e-9)
}

func TestTwoOpt_Small(t *testing.T) {
	d := random(3, 1)
	tour := TwoOpt(d, tspmip.Tour{Path: []int{2, 0, 1}}, time.Time{})
	assert.NoError(t, tour.Check(d))
}

func TestPatch(t *testing.T) {
	d := tspmip.NewDistances([][]float64{{0, 0}, {1, 0}, {0, 1}, {10, 0}, {11, 0}, {10, 1}, {20, 20}, {21, 20}}, tspmip.EXACT_2D)
	succ := []int{1, 2, 0, 4, 5, 3, 7, 6}
	require.Equal(t, 3, sec.FromSucc(succ).Count)

	patched := Patch(d, succ)
	assert.Equal(t, 1, sec.FromSucc(patched.Succ).Count)
	assert.InDelta(t, tspmip.SuccCost(d, patched.Succ), patched.Cost, 1e-12)
	assert.NoError(t, patched.Path().Check(d))
	assert.Equal(t, []int{1, 2, 0, 4, 5, 3, 7, 6}, succ)

	single := Patch(d, []int{1, 2, 3, 4, 5, 6, 7, 0})
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 0}, single.Succ)
}
