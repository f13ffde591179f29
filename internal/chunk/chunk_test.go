package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTilesExactly(t *testing.T) {
	chunks, err := Plan(25, 10, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, TimeChunk{Start: 0, End: 10, PaddingLeft: 0, PaddingRight: 3}, chunks[0])
	assert.Equal(t, TimeChunk{Start: 10, End: 20, PaddingLeft: 3, PaddingRight: 3}, chunks[1])
	assert.Equal(t, TimeChunk{Start: 20, End: 25, PaddingLeft: 3, PaddingRight: 0}, chunks[2])

	assert.Equal(t, int64(13), chunks[0].TotalSize())
	assert.Equal(t, int64(16), chunks[1].TotalSize())
	assert.Equal(t, int64(11), chunks[2].TotalSize())
}

func TestPlanCoversEveryFrameOnce(t *testing.T) {
	chunks, err := Plan(1000, 128, 40)
	require.NoError(t, err)

	var next int64
	for _, c := range chunks {
		assert.Equal(t, next, c.Start)
		assert.Greater(t, c.End, c.Start)
		assert.GreaterOrEqual(t, c.Start-c.PaddingLeft, int64(0))
		assert.LessOrEqual(t, c.End+c.PaddingRight, int64(1000))
		next = c.End
	}
	assert.Equal(t, int64(1000), next)
}

func TestPlanSingleChunk(t *testing.T) {
	chunks, err := Plan(50, 100, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, TimeChunk{Start: 0, End: 50, PaddingLeft: 0, PaddingRight: 0}, chunks[0])
}

func TestPlanPaddingClampedAtEdges(t *testing.T) {
	chunks, err := Plan(30, 10, 100)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, int64(0), chunks[0].PaddingLeft)
	assert.Equal(t, int64(10), chunks[0].PaddingRight)
	assert.Equal(t, int64(10), chunks[1].PaddingLeft)
	assert.Equal(t, int64(10), chunks[1].PaddingRight)
	assert.Equal(t, int64(20), chunks[2].PaddingLeft)
	assert.Equal(t, int64(0), chunks[2].PaddingRight)
}

func TestPlanEmptyRecording(t *testing.T) {
	chunks, err := Plan(0, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPlanRejectsBadParameters(t *testing.T) {
	_, err := Plan(-1, 10, 3)
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = Plan(100, 0, 3)
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = Plan(100, 10, -1)
	assert.ErrorIs(t, err, ErrInvalidPlan)
}
