package gameid

import (
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id, err := NewGenerator(nil, nil).Generate()
	require.NoError(t, err)
	assert.Len(t, id, Length)
	assert.NoError(t, Validate(id))
}

func TestGenerateUnique(t *testing.T) {
	g := NewGenerator(nil, nil)
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		require.False(t, ids[id], "duplicate ID generated: %s", id)
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	clock := quartz.NewMock(t)
	g := NewGenerator(randutil.NewSeeded(1), clock)

	var ids []string
	for i := 0; i < 10; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Millisecond)
	}

	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s >= %s", ids[i-1], ids[i])
	}
}

func TestGenerateDeterministic(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	a, err := NewGenerator(randutil.NewSeeded(9), clock).Generate()
	require.NoError(t, err)
	b, err := NewGenerator(randutil.NewSeeded(9), clock).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateEntropyFailure(t *testing.T) {
	_, err := NewGenerator(randutil.NewScripted(1), nil).Generate()
	assert.ErrorIs(t, err, randutil.ErrEntropy)
}

func TestEncodeZeroAndMax(t *testing.T) {
	var zero [16]byte
	assert.Equal(t, strings.Repeat("0", Length), encode(zero))

	var max [16]byte
	for i := range max {
		max[i] = 0xff
	}
	assert.Equal(t, "7"+strings.Repeat("z", Length-1), encode(max))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h455vb4pex5vsknk084sn02q", false},
		{"too short", "01h455vb4pex5vsknk084sn02", true},
		{"too long", "01h455vb4pex5vsknk084sn02qq", true},
		{"first char too large", "81h455vb4pex5vsknk084sn02q", true},
		{"invalid char", "01h455vb4pex5vsknk084sn0iq", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
