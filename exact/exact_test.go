package exact

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/bnb"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/mip/miptest"
	"git.solver4all.com/azaryc2s/tspmip/sec"
)

func TestNewRun_Invalid(t *testing.T) {
	set := tspmip.DefaultSettings()
	d := tspmip.NewDistances([][]float64{{0, 0}, {1, 1}}, tspmip.EXACT_2D)
	_, err := NewRun("test", d, miptest.New(), set, nil)
	assert.Error(t, err)

	set.TimeLimit = 0
	d = tspmip.NewDistances(squareCenter, tspmip.EXACT_2D)
	_, err = NewRun("test", d, miptest.New(), set, nil)
	assert.Error(t, err)
}

func TestBuildModel(t *testing.T) {
	f := miptest.New()
	run := newRun(t, squareCenter, f, func(s *tspmip.Settings) { s.Verbose = true })
	require.NoError(t, BuildModel(run))

	require.Len(t, f.Vars, 10)
	v := f.Vars[tspmip.EdgeIndex(0, 4, 5)]
	assert.Equal(t, "x(1,5)", v.Name)
	assert.InDelta(t, run.Dist.Dist(0, 4), v.Obj, 1e-12)
	assert.Equal(t, mip.Binary, v.Type)
	assert.Equal(t, 0.0, v.LB)
	assert.Equal(t, 1.0, v.UB)

	require.Len(t, f.Rows, 5)
	for h, row := range f.Rows {
		assert.Equal(t, mip.Equal, row.Sense)
		assert.Equal(t, 2.0, row.RHS)
		assert.Len(t, row.Terms, 4)
		for _, term := range row.Terms {
			i, j := tspmip.EdgeEnds(term.Index, 5)
			assert.True(t, i == h || j == h, "row %d holds edge (%d,%d)", h, i, j)
		}
	}
	assert.Equal(t, "degree(1)", f.Rows[0].Name)
	assert.Equal(t, []string{"model.lp"}, f.Written)
}

func TestBuildModel_NoDumpForLargeInstances(t *testing.T) {
	coords := make([][]float64, 11)
	for i := range coords {
		coords[i] = []float64{float64(i), 0}
	}
	f := miptest.New()
	run := newRun(t, coords, f, func(s *tspmip.Settings) { s.Verbose = true })
	require.NoError(t, BuildModel(run))
	assert.Len(t, f.Vars, 55)
	assert.Empty(t, f.Written)
}

func TestDecide(t *testing.T) {
	d := tspmip.NewDistances(twoTriangles, tspmip.EXACT_2D)

	cmd, err := Decide(d, vars(6, append(cycle(0, 1, 2), cycle(3, 4, 5)...)...))
	require.NoError(t, err)
	assert.Equal(t, Reject, cmd.Kind)
	assert.Equal(t, 2, cmd.Components)
	require.Len(t, cmd.Cuts, 2)
	for _, cut := range cmd.Cuts {
		assert.Equal(t, 3, cut.NNZ())
		assert.Equal(t, 2.0, cut.RHS)
		assert.Equal(t, mip.LessEqual, cut.Sense)
	}
	assert.Equal(t, "sec(0,1,2)", cmd.Cuts[0].Name)

	cmd, err = Decide(d, vars(6, cycle(0, 2, 1, 3, 5, 4)...))
	require.NoError(t, err)
	assert.Equal(t, Accept, cmd.Kind)
	assert.Empty(t, cmd.Cuts)
	assert.Equal(t, 0, cmd.Tour.Path[0])
	assert.NoError(t, cmd.Tour.Check(d))

	_, err = Decide(d, vars(6, [2]int{0, 1}))
	assert.Equal(t, sec.ErrMalformed, errors.Cause(err))
}

func TestCallback_Handle(t *testing.T) {
	f := miptest.New()
	run := newRun(t, twoTriangles, f, nil)
	cb := NewCallback(run, NewPoster(run, DefaultRefiner))
	require.NoError(t, f.SetCandidateCallback(cb.Handle))

	rec, err := f.Fire(vars(6, append(cycle(0, 1, 2), cycle(3, 4, 5)...)...), 2)
	require.NoError(t, err)
	assert.True(t, rec.Rejected)
	assert.Len(t, rec.Cuts, 2)
	assert.Empty(t, rec.Posts)
	assert.Equal(t, 2, cb.Cuts())
	assert.Equal(t, 1, cb.Rejected())
	assert.Equal(t, 2.0, testutil.ToFloat64(run.Stats.SECs))
	_, ok := cb.Best()
	assert.False(t, ok)

	x := vars(6, cycle(0, 4, 1, 3, 2, 5)...)
	rec, err = f.Fire(x, 0)
	require.NoError(t, err)
	assert.False(t, rec.Rejected)
	require.Len(t, rec.Posts, 1)
	best, ok := cb.Best()
	require.True(t, ok)
	assert.NoError(t, best.Check(run.Dist))
	assert.InDelta(t, best.Cost, rec.Posts[0].Obj, 1e-9)
	raw := tspmip.NewTour(run.Dist, []int{0, 4, 1, 3, 2, 5})
	assert.Less(t, best.Cost, raw.Cost)
	assert.Equal(t, 1.0, testutil.ToFloat64(run.Stats.Posted))
}

func TestCallback_Malformed(t *testing.T) {
	f := miptest.New()
	run := newRun(t, twoTriangles, f, nil)
	cb := NewCallback(run, NewPoster(run, DefaultRefiner))
	require.NoError(t, f.SetCandidateCallback(cb.Handle))

	_, err := f.Fire(vars(6, [2]int{0, 1}, [2]int{2, 3}), 2)
	assert.Equal(t, sec.ErrMalformed, errors.Cause(err))
}

func TestPoster_Idempotent(t *testing.T) {
	f := miptest.New()
	run := newRun(t, squareCenter, f, nil)
	poster := NewPoster(run, DefaultRefiner)
	tour := tspmip.NewTour(run.Dist, []int{0, 2, 1, 4, 3})

	var posted []tspmip.Tour
	f.Callback = func(cc mip.CandidateContext) error {
		p, err := poster.Post(cc, tour)
		posted = append(posted, p)
		return err
	}
	first, err := f.Fire(nil, 0)
	require.NoError(t, err)
	second, err := f.Fire(nil, 0)
	require.NoError(t, err)

	require.Len(t, posted, 2)
	for k, rec := range []miptest.Candidate{first, second} {
		require.Len(t, rec.Posts, 1)
		assert.NoError(t, posted[k].Check(run.Dist))
		assert.Equal(t, tspmip.PathCost(run.Dist, posted[k].Path), rec.Posts[0].Obj)
		assert.Equal(t, posted[k].Vars(5), rec.Posts[0].X)
	}
	assert.Equal(t, first.Posts[0], second.Posts[0])
	assert.Less(t, first.Posts[0].Obj, tour.Cost)
}

func TestPoster_FallsBackToOriginal(t *testing.T) {
	run := newRun(t, squareCenter, miptest.New(), nil)
	broken := func(*tspmip.Distances, tspmip.Tour, time.Time) tspmip.Tour {
		return tspmip.Tour{Path: []int{0, 0, 0, 0, 0}, Cost: 1}
	}
	poster := NewPoster(run, broken)
	tour := tspmip.NewTour(run.Dist, []int{0, 1, 2, 3, 4})

	use, x, err := poster.Prepare(tour)
	require.NoError(t, err)
	assert.Equal(t, tour.Path, use.Path)
	assert.Equal(t, tour.Vars(5), x)
	assert.Equal(t, 1.0, testutil.ToFloat64(run.Stats.PostFallbacks))
}

func TestPoster_Invalid(t *testing.T) {
	run := newRun(t, squareCenter, miptest.New(), nil)
	poster := NewPoster(run, nil)

	_, _, err := poster.Prepare(tspmip.Tour{Path: []int{0, 1, 2, 3, 4}, Cost: 1})
	assert.Equal(t, ErrInvalidTour, errors.Cause(err))
	_, _, err = poster.Prepare(tspmip.Tour{Path: []int{0, 1, 1, 3, 4}})
	assert.Equal(t, ErrInvalidTour, errors.Cause(err))
}

func TestMIPStart(t *testing.T) {
	f := miptest.New()
	run := newRun(t, squareCenter, f, nil)
	require.NoError(t, BuildModel(run))

	tour, ok, err := MIPStart(run)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, tour.Check(run.Dist))
	require.Len(t, f.Starts, 1)
	assert.Equal(t, tour.Vars(5), f.Starts[0])
}

func TestRunCandidate_SquareCenter(t *testing.T) {
	for _, start := range []bool{false, true} {
		run := newRun(t, squareCenter, bnb.New("tsp"), func(s *tspmip.Settings) { s.MIPStart = start })
		res, err := RunCandidate(context.Background(), run)
		require.NoError(t, err, "mip start %v", start)
		assert.True(t, res.Optimal)
		assert.Equal(t, mip.Optimal, res.Status)
		assert.InDelta(t, squareCenterOpt, res.Tour.Cost, 1e-6)
		assert.InDelta(t, squareCenterOpt, res.LowerBound, 1e-6)
		assert.Equal(t, 1, sec.FromSucc(res.Tour.Succ().Succ).Count)
	}
}

func TestRunCandidate_FirstRejectionSplitsClusters(t *testing.T) {
	solver := newRecorder()
	run := newRun(t, twoClusters, solver, nil)
	res, err := RunCandidate(context.Background(), run)
	require.NoError(t, err)

	require.NotEmpty(t, solver.events)
	assert.Equal(t, event{kind: "reject", rhs: []float64{2, 3}}, solver.events[0])
	assert.True(t, res.Optimal)
	assert.GreaterOrEqual(t, res.Cuts, 2)
	assert.NoError(t, res.Tour.Check(run.Dist))
	assert.InDelta(t, res.LowerBound, res.Tour.Cost, 1e-6)
	assert.Equal(t, 1, sec.FromSucc(res.Tour.Succ().Succ).Count)
}

func TestRunBenders(t *testing.T) {
	ref := newRun(t, twoClusters, bnb.New("reference"), nil)
	want, err := RunCandidate(context.Background(), ref)
	require.NoError(t, err)

	for _, patch := range []bool{false, true} {
		solver := newRecorder()
		run := newRun(t, twoClusters, solver, nil)
		res, err := RunBenders(context.Background(), run, patch)
		require.NoError(t, err, "patch %v", patch)

		assert.True(t, res.Optimal)
		assert.Equal(t, mip.Optimal, res.Status)
		assert.InDelta(t, want.Tour.Cost, res.Tour.Cost, 1e-6)
		assert.GreaterOrEqual(t, res.Iterations, 2)
		assert.Equal(t, len(solver.cuts), res.Cuts)

		require.GreaterOrEqual(t, len(solver.cuts), 2)
		assert.Equal(t, "sec(0,1,2)", solver.cuts[0].Name)
		assert.Equal(t, 2.0, solver.cuts[0].RHS)
		assert.Equal(t, "sec(3,4,5,6)", solver.cuts[1].Name)
		assert.Equal(t, 3.0, solver.cuts[1].RHS)

		names := make(map[string]bool)
		for _, cut := range solver.cuts {
			assert.False(t, names[cut.Name], "cut %s emitted twice", cut.Name)
			names[cut.Name] = true
		}
	}
}

func TestRunBenders_MIPStart(t *testing.T) {
	run := newRun(t, squareCenter, bnb.New("tsp"), func(s *tspmip.Settings) { s.MIPStart = true })
	res, err := RunBenders(context.Background(), run, false)
	require.NoError(t, err)
	assert.True(t, res.Optimal)
	assert.InDelta(t, squareCenterOpt, res.Tour.Cost, 1e-6)
}

func TestRunBenders_NoProgress(t *testing.T) {
	f := miptest.New()
	x := vars(6, append(cycle(0, 1, 2), cycle(3, 4, 5)...)...)
	f.Script = func(f *miptest.Fake, call int) (mip.Status, error) {
		f.Sol, f.Obj = x, f.Objective(x)
		return mip.Optimal, nil
	}
	run := newRun(t, twoTriangles, f, nil)

	_, err := RunBenders(context.Background(), run, false)
	assert.Equal(t, ErrNoProgress, errors.Cause(err))
	assert.Len(t, f.Limits, 2)
	assert.Len(t, f.Rows, 6+2)
}

func TestRunBenders_BudgetExhausted(t *testing.T) {
	x := vars(6, append(cycle(0, 1, 2), cycle(3, 4, 5)...)...)
	for _, patch := range []bool{false, true} {
		f := miptest.New()
		run := newRun(t, twoTriangles, f, nil)
		clock := &fakeClock{now: time.Unix(0, 0)}
		useClock(run, clock)
		f.Script = func(f *miptest.Fake, call int) (mip.Status, error) {
			clock.Advance(time.Minute)
			f.Sol, f.Obj = x, f.Objective(x)
			return mip.Optimal, nil
		}

		res, err := RunBenders(context.Background(), run, patch)
		if !patch {
			assert.Equal(t, ErrNoTour, errors.Cause(err))
			continue
		}
		require.NoError(t, err)
		assert.False(t, res.Optimal)
		assert.Equal(t, mip.TimeLimit, res.Status)
		assert.Equal(t, 1, res.Iterations)
		assert.Equal(t, 2, res.Cuts)
		assert.NoError(t, res.Tour.Check(run.Dist))
		assert.Equal(t, 1.0, testutil.ToFloat64(run.Stats.Patched))
		require.Len(t, f.Starts, 1)
		assert.Equal(t, res.Tour.Vars(6), f.Starts[0])
	}
}

func TestRunBenders_ExpiresBetweenReadings(t *testing.T) {
	triangles := vars(6, append(cycle(0, 1, 2), cycle(3, 4, 5)...)...)
	for after := 1; after <= 12; after++ {
		f := miptest.New()
		run := newRun(t, twoTriangles, f, nil)
		clock := &expiringClock{start: time.Unix(0, 0), after: after}
		run.Timer = tspmip.NewTimerWithClock(run.Settings.Limit(), clock.Now)
		f.Script = func(f *miptest.Fake, call int) (mip.Status, error) {
			x := triangles
			if call > 1 {
				x = f.Starts[len(f.Starts)-1]
			}
			f.Sol, f.Obj = x, f.Objective(x)
			return mip.Optimal, nil
		}

		res, err := RunBenders(context.Background(), run, true)
		for _, limit := range f.Limits {
			assert.Positive(t, limit, "expired after %d readings", after)
		}
		if len(f.Limits) == 0 {
			assert.Equal(t, ErrNoTour, errors.Cause(err), "expired after %d readings", after)
			continue
		}
		require.NoError(t, err, "expired after %d readings", after)
		assert.NoError(t, res.Tour.Check(run.Dist))
		if !res.Optimal {
			assert.Equal(t, mip.TimeLimit, res.Status)
		}
	}
}

func TestRunCandidate_NoBudgetLeft(t *testing.T) {
	f := miptest.New()
	run := newRun(t, squareCenter, f, nil)
	clock := &fakeClock{now: time.Unix(0, 0)}
	useClock(run, clock)
	clock.Advance(time.Hour)

	_, err := RunCandidate(context.Background(), run)
	assert.Empty(t, f.Limits)
	assert.Equal(t, ErrNoTour, errors.Cause(err))
}

func TestRunCandidate_RegularPolygons(t *testing.T) {
	for n := 5; n <= 10; n++ {
		coords := make([][]float64, n)
		path := make([]int, n)
		for i := range coords {
			a := 2 * math.Pi * float64(i) / float64(n)
			coords[i] = []float64{100 * math.Cos(a), 100 * math.Sin(a)}
			path[i] = i
		}
		for _, start := range []bool{false, true} {
			run := newRun(t, coords, bnb.New("polygon"), func(s *tspmip.Settings) { s.MIPStart = start })
			begin := time.Now()
			res, err := RunCandidate(context.Background(), run)
			require.NoError(t, err, "n=%d start=%v", n, start)
			assert.True(t, res.Optimal, "n=%d start=%v", n, start)
			assert.InDelta(t, tspmip.NewTour(run.Dist, path).Cost, res.Tour.Cost, 1e-6, "n=%d start=%v", n, start)
			assert.Less(t, time.Since(begin), 10*time.Second)
		}
	}
}

func TestResult_Solution(t *testing.T) {
	run := newRun(t, squareCenter, miptest.New(), nil)
	res := &Result{Tour: tspmip.NewTour(run.Dist, []int{0, 1, 4, 2, 3}), Status: mip.Optimal, Optimal: true, LowerBound: 8, Cuts: 3}
	res, err := res.Finish(run)
	require.NoError(t, err)

	sol := res.Solution(run)
	assert.Equal(t, "test", sol.Algorithm)
	assert.Equal(t, run.ID, sol.RunID)
	assert.Equal(t, "OPTIMAL", sol.Status)
	assert.Equal(t, []int{0, 1, 4, 2, 3}, sol.Route)
	assert.InDelta(t, squareCenterOpt, sol.Cost, 1e-9)
	assert.Equal(t, 3, sol.Cuts)
}
