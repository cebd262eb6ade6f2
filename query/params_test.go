package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/classdb/errors"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, Unbounded, p.NumberOfResults())
	assert.Equal(t, float32(0), p.Threshold())
	assert.False(t, p.OnlyBest())
	assert.False(t, p.Bounded())

	built, err := NewBuilder().Build()
	require.NoError(t, err)
	assert.Equal(t, p, built)
}

func TestNewParams(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		threshold float32
		wantErr   bool
	}{
		{name: "unbounded", n: -1, threshold: 0},
		{name: "zero results", n: 0, threshold: 0.5},
		{name: "upper threshold", n: 10, threshold: 1},
		{name: "n below -1", n: -2, threshold: 0, wantErr: true},
		{name: "negative threshold", n: 5, threshold: -0.1, wantErr: true},
		{name: "threshold above 1", n: 5, threshold: 1.5, wantErr: true},
		{name: "NaN threshold", n: 5, threshold: float32(math.NaN()), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParams(tt.n, tt.threshold, false)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidRequestError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.n, p.NumberOfResults())
			assert.Equal(t, tt.threshold, p.Threshold())
		})
	}
}

func TestBuilder(t *testing.T) {
	p, err := NewBuilder().NumberOfResults(3).Threshold(0.5).OnlyBest(true).Build()
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumberOfResults())
	assert.Equal(t, float32(0.5), p.Threshold())
	assert.True(t, p.OnlyBest())
	assert.True(t, p.Bounded())
	assert.Equal(t, "Params{nresults=3, threshold=0.5, onlyBest=true}", p.String())

	_, err = NewBuilder().Threshold(2).Build()
	assert.Error(t, err)
}
