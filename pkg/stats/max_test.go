package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	id int
	v  float64
}

func value(s sample) float64 { return s.v }

func TestMaxKeepsLargest(t *testing.T) {
	m := NewMax(value)
	records := []sample{{0, 1}, {1, 5}, {2, 3}, {3, 5}, {4, math.NaN()}, {5, 4}}

	prev := math.Inf(-1)
	for i, r := range records {
		m.Fold(r, i)
		if !math.IsNaN(m.Value()) {
			require.GreaterOrEqual(t, m.Value(), prev, "maximum decreased after record %d", i)
			prev = m.Value()
		}
	}

	ext, err := m.Finalize()
	require.NoError(t, err)
	require.Equal(t, 5.0, ext.Value)
	// Tie with record 3 keeps the earlier holder.
	require.Equal(t, 1, ext.Line)
	require.Equal(t, 1, ext.Record.id)
	require.Equal(t, len(records), m.Seen())
}

func TestMaxFoldReportsNewHolder(t *testing.T) {
	m := NewMax(value)
	require.True(t, m.Fold(sample{v: 2}, 0))
	require.False(t, m.Fold(sample{v: 2}, 1))
	require.False(t, m.Fold(sample{v: 1}, 2))
	require.False(t, m.Fold(sample{v: math.NaN()}, 3))
	require.True(t, m.Fold(sample{v: 2.5}, 4))
	require.Equal(t, 4, m.Line())
}

func TestMaxNaNFirst(t *testing.T) {
	m := NewMax(value)
	m.Fold(sample{v: math.NaN()}, 0)
	m.Fold(sample{v: 0}, 1)

	ext, err := m.Finalize()
	require.NoError(t, err)
	require.Equal(t, 0.0, ext.Value)
	require.Equal(t, 1, ext.Line)
}

func TestMaxAllUndefined(t *testing.T) {
	m := NewMax(value)
	m.Fold(sample{v: math.NaN()}, 0)

	ext, err := m.Finalize()
	require.NoError(t, err)
	require.True(t, math.IsNaN(ext.Value))
	require.Equal(t, -1, ext.Line)
}

func TestMaxFinalizeEmpty(t *testing.T) {
	_, err := NewMax(value).Finalize()
	require.ErrorIs(t, err, ErrEmpty)
}

func BenchmarkMaxFold(b *testing.B) {
	m := NewMax(value)
	s := sample{v: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Fold(s, 0)
	}
}
