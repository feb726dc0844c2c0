package randutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededIsReproducible(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)

	for i := 0; i < 32; i++ {
		va, err := a.Uint32()
		require.NoError(t, err)
		vb, err := b.Uint32()
		require.NoError(t, err)
		assert.Equal(t, va, vb, "draw %d", i)
	}
}

func TestSeededDiffersBySeed(t *testing.T) {
	a := NewSeeded(1)
	b := NewSeeded(2)

	same := 0
	for i := 0; i < 16; i++ {
		va, _ := a.Uint32()
		vb, _ := b.Uint32()
		if va == vb {
			same++
		}
	}
	assert.Less(t, same, 16)
}

func TestScripted(t *testing.T) {
	s := NewScripted(7, 0, 3)
	assert.Equal(t, 3, s.Remaining())

	for _, want := range []uint32{7, 0, 3} {
		got, err := s.Uint32()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := s.Uint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEntropy))
	assert.Equal(t, 0, s.Remaining())
}

func TestCrypto(t *testing.T) {
	src := Crypto()

	seen := make(map[uint32]bool)
	for i := 0; i < 8; i++ {
		v, err := src.Uint32()
		require.NoError(t, err)
		seen[v] = true
	}
	// Eight identical 32-bit draws would mean the source is broken.
	assert.Greater(t, len(seen), 1)
}

func TestSourceFunc(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func() (uint32, error) { return 0, boom })

	_, err := src.Uint32()
	assert.ErrorIs(t, err, boom)
}
