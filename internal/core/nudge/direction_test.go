package nudge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"up", Up},
		{"Down", Down},
		{" left ", Left},
		{"e", Right},
		{"up-left", UpLeft},
		{"UpRight", UpRight},
		{"down_left", DownLeft},
		{"SE", DownRight},
		{"north west", UpLeft},
		{"rightdown", DownRight},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = ParseDirection("")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDirectionStep(t *testing.T) {
	steps := map[Direction][2]float64{
		Up:        {0, 1},
		Down:      {0, -1},
		Left:      {-1, 0},
		Right:     {1, 0},
		UpLeft:    {-1, 1},
		UpRight:   {1, 1},
		DownLeft:  {-1, -1},
		DownRight: {1, -1},
	}
	for d, want := range steps {
		dx, dy := d.Step()
		assert.Equal(t, want, [2]float64{dx, dy}, d.String())
		assert.True(t, d.Valid())
	}

	dx, dy := DirectionInvalid.Step()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.False(t, DirectionInvalid.Valid())
	assert.False(t, Direction(42).Valid())
	assert.Equal(t, "direction(42)", Direction(42).String())
}

func TestDirectionText(t *testing.T) {
	text, err := DownLeft.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "down-left", string(text))

	var d Direction
	require.NoError(t, d.UnmarshalText(text))
	assert.Equal(t, DownLeft, d)

	_, err = DirectionInvalid.MarshalText()
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Error(t, d.UnmarshalText([]byte("around")))
	assert.Equal(t, DownLeft, d)
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("pSphere1", DownLeft, 5, false, true)
	require.NoError(t, err)
	assert.Equal(t, "pSphere1", req.Target)
	assert.Equal(t, -5.0, req.DX)
	assert.Equal(t, -5.0, req.DY)
	assert.True(t, req.RotateView)
	assert.True(t, req.View.IsActive())
	assert.True(t, req.rotates())

	req, err = NewRequest("pSphere1", Up, 2.5, true, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, req.DX)
	assert.Equal(t, 2.5, req.DY)
	assert.False(t, req.rotates(), "moving the object never rotates the camera")

	_, err = NewRequest("pSphere1", DirectionInvalid, 1, false, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest("pSphere1", Up, math.NaN(), false, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest("pSphere1", Up, math.Inf(1), false, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest("pSphere1", Up, 0, false, false)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewRequest("pSphere1", Right, -4, false, false)
	assert.ErrorIs(t, err, ErrInvalidRequest, "a negative amount would flip the direction")
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{Target: "a", DX: 1}.validate())
	assert.ErrorIs(t, Request{DX: 1}.validate(), ErrInvalidTarget)
	assert.ErrorIs(t, Request{Target: "a", DX: math.NaN()}.validate(), ErrInvalidRequest)
	assert.ErrorIs(t, Request{Target: "a", DY: math.Inf(-1)}.validate(), ErrInvalidRequest)
}
