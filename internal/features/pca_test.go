package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// elongatedCloud builds points spread along the direction (0.6, 0.8)
// with a small deterministic perpendicular wiggle.
func elongatedCloud(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i)
		w := 0.01
		if i%2 == 0 {
			w = -0.01
		}
		rows[i] = []float64{
			t*0.6 + w*(-0.8),
			t*0.8 + w*0.6,
		}
	}
	return rows
}

func variance(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[j]
	}
	return out
}

func TestFitFindsDominantDirection(t *testing.T) {
	rows := elongatedCloud(12)

	projection, err := Fit(rows, 2)
	require.NoError(t, err)
	require.Equal(t, 2, projection.NumComponents())

	feats, err := projection.Transform(rows)
	require.NoError(t, err)
	require.Len(t, feats, 12)

	// Nearly all variance lives in the first component.
	v0 := variance(column(feats, 0))
	v1 := variance(column(feats, 1))
	assert.Greater(t, v0, 100*v1)

	// Centering makes the projected cloud zero-mean.
	var mean0 float64
	for _, f := range feats {
		mean0 += f[0]
	}
	assert.InDelta(t, 0, mean0/float64(len(feats)), 1e-9)
}

func TestFitClampsComponentCount(t *testing.T) {
	rows := elongatedCloud(5)
	projection, err := Fit(rows, 10)
	require.NoError(t, err)
	// Two dimensions support at most two components.
	assert.Equal(t, 2, projection.NumComponents())
}

func TestFitDegenerateInput(t *testing.T) {
	_, err := Fit(nil, 3)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Fit([][]float64{{1, 2}}, 3)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestFitRaggedInput(t *testing.T) {
	_, err := Fit([][]float64{{1, 2}, {3}}, 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegenerate)
}

func TestComputeMatchesFitTransform(t *testing.T) {
	rows := elongatedCloud(8)

	direct, err := Compute(rows, 2)
	require.NoError(t, err)

	projection, err := Fit(rows, 2)
	require.NoError(t, err)
	indirect, err := projection.Transform(rows)
	require.NoError(t, err)

	require.Len(t, direct, len(indirect))
	for i := range direct {
		for j := range direct[i] {
			assert.InDelta(t, indirect[i][j], direct[i][j], 1e-12)
		}
	}
}

func TestTransformDimensionMismatch(t *testing.T) {
	projection, err := Fit(elongatedCloud(6), 2)
	require.NoError(t, err)

	_, err = projection.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestTransformDeterministic(t *testing.T) {
	rows := elongatedCloud(10)
	a, err := Compute(rows, 2)
	require.NoError(t, err)
	b, err := Compute(rows, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFitRejectsBadComponentCount(t *testing.T) {
	_, err := Fit(elongatedCloud(5), 0)
	assert.Error(t, err)
}
