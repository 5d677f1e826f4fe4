package exact

import (
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/bnb"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// squareCenter is the unit square scaled by 2 with its center; the optimal tour
// takes the detour through the center on one side: 6 + 2√2.
var squareCenter = [][]float64{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {1, 1}}

var squareCenterOpt = 6 + 2*math.Sqrt2

// twoClusters relaxes to a triangle on 0..2 and a rectangle on 3..6.
var twoClusters = [][]float64{{0, 0}, {3, 0}, {0, 4}, {100, 0}, {104, 0}, {104, 2}, {100, 2}}

// twoTriangles relaxes to the triangles 0..2 and 3..5.
var twoTriangles = [][]float64{{0, 0}, {1, 0}, {0, 1}, {50, 0}, {51, 0}, {50, 1}}

func newRun(t *testing.T, coords [][]float64, solver mip.Solver, mutate func(*tspmip.Settings)) *Run {
	set := tspmip.DefaultSettings()
	set.TimeLimit = 30
	set.MIPStart = false
	if mutate != nil {
		mutate(&set)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	run, err := NewRun("test", tspmip.NewDistances(coords, tspmip.EXACT_2D), solver, set, log)
	require.NoError(t, err)
	return run
}

// vars sets the columns of the given edges to 1.
func vars(n int, edges ...[2]int) []float64 {
	x := make([]float64, tspmip.EdgeCount(n))
	for _, e := range edges {
		x[tspmip.EdgeIndex(e[0], e[1], n)] = 1
	}
	return x
}

func cycle(nodes ...int) [][2]int {
	edges := make([][2]int, len(nodes))
	for i := range nodes {
		edges[i] = [2]int{nodes[i], nodes[(i+1)%len(nodes)]}
	}
	return edges
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// expiringClock stands still for its first readings and then jumps far past any
// budget, so the budget runs out between two consecutive readings.
type expiringClock struct {
	start    time.Time
	readings int
	after    int
}

func (c *expiringClock) Now() time.Time {
	c.readings++
	if c.readings > c.after {
		return c.start.Add(time.Hour)
	}
	return c.start
}

// useClock makes the run budget follow c.
func useClock(run *Run, c *fakeClock) {
	run.Timer = tspmip.NewTimerWithClock(run.Settings.Limit(), c.Now)
}

type event struct {
	kind string
	rhs  []float64
}

// recorder logs every rejection and post the callback makes on a bnb solver.
type recorder struct {
	*bnb.Solver
	events []event
	cuts   []mip.Row
}

func (r *recorder) AddConstr(row mip.Row) (int, error) {
	if strings.HasPrefix(row.Name, "sec(") {
		r.cuts = append(r.cuts, row)
	}
	return r.Solver.AddConstr(row)
}

func newRecorder() *recorder {
	return &recorder{Solver: bnb.New("recorded")}
}

func (r *recorder) SetCandidateCallback(fn mip.CandidateFunc) error {
	return r.Solver.SetCandidateCallback(func(cc mip.CandidateContext) error {
		return fn(&recordingContext{CandidateContext: cc, r: r})
	})
}

type recordingContext struct {
	mip.CandidateContext
	r *recorder
}

func (c *recordingContext) RejectCandidate(cuts []mip.Row) error {
	ev := event{kind: "reject"}
	for _, cut := range cuts {
		ev.rhs = append(ev.rhs, cut.RHS)
	}
	c.r.events = append(c.r.events, ev)
	return c.CandidateContext.RejectCandidate(cuts)
}

func (c *recordingContext) PostIncumbent(x []float64, obj float64) error {
	c.r.events = append(c.r.events, event{kind: "post", rhs: []float64{obj}})
	return c.CandidateContext.PostIncumbent(x, obj)
}
