package stats

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := New("r1", "BENDERS")
	c.SECs.Add(3)
	c.Rejected.Inc()
	c.MatheurIterations.WithLabelValues("hard_fixing").Inc()
	c.SolveSeconds.Observe(0.25)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.SECs))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MatheurIterations.WithLabelValues("hard_fixing")))

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "tspmip_sec_cuts_total")
	assert.Contains(t, out, `run="r1"`)
	assert.Contains(t, out, `method="hard_fixing"`)
	assert.Contains(t, out, "tspmip_solve_seconds_count")

	other := New("r2", "BENDERS")
	assert.Equal(t, 0.0, testutil.ToFloat64(other.SECs))
}
