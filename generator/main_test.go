package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.solver4all.com/azaryc2s/tspmip"
)

func TestGenerate(t *testing.T) {
	inst := Generate("r", 50, 100, 20, tspmip.CEIL_2D, rand.New(rand.NewSource(3)))
	assert.Equal(t, 50, inst.Dimension)
	assert.Len(t, inst.NodeCoordinates, 50)
	assert.Equal(t, tspmip.CEIL_2D, inst.EdgeWeightType)
	for _, xy := range inst.NodeCoordinates {
		assert.True(t, xy[0] >= 0 && xy[0] < 100)
		assert.True(t, xy[1] >= 0 && xy[1] < 20)
	}

	again := Generate("r", 50, 100, 20, tspmip.CEIL_2D, rand.New(rand.NewSource(3)))
	assert.Equal(t, inst.NodeCoordinates, again.NodeCoordinates)
}
