package stego

import (
	"bytes"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBitwidth(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8} {
		w, err := ParseBitwidth(n)
		require.NoError(t, err)
		assert.Equal(t, n, int(w))
	}

	for _, n := range []int{-1, 0, 3, 5, 6, 7, 16, 256} {
		_, err := ParseBitwidth(n)
		assert.ErrorIs(t, err, ErrInvalidBitwidth, "bitwidth %d", n)
	}
}

func TestBitwidthCodes(t *testing.T) {
	for code, want := range []Bitwidth{1, 2, 4, 8} {
		w, err := BitwidthFromCode(uint8(code))
		require.NoError(t, err)
		assert.Equal(t, want, w)
		assert.Equal(t, uint8(code), w.Code())
	}

	_, err := BitwidthFromCode(4)
	assert.ErrorIs(t, err, ErrInvalidBitwidth)
}

func TestExpandOrder(t *testing.T) {
	tests := []struct {
		w    Bitwidth
		want []byte
	}{
		{1, []byte{1, 0, 1, 1, 0, 0, 1, 0}},
		{2, []byte{0b10, 0b11, 0b00, 0b10}},
		{4, []byte{0xB, 0x2}},
		{8, []byte{0xB2}},
	}

	for _, tt := range tests {
		got, err := Expand([]byte{0xB2}, tt.w)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "bitwidth %d", tt.w)
	}
}

func TestExpandRejectsInvalidBitwidth(t *testing.T) {
	_, err := Expand([]byte("x"), 3)
	assert.ErrorIs(t, err, ErrInvalidBitwidth)

	_, err = Collapse([]byte{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidBitwidth)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inputs := [][]byte{
		{},
		{0x00},
		{0xFF},
		[]byte("Hello world!"),
		bytes.Repeat([]byte{0xA5, 0x5A}, 513),
	}
	random := make([]byte, 4096)
	rng.Read(random)
	inputs = append(inputs, random)

	for _, w := range bitwidths {
		for _, in := range inputs {
			symbols, err := Expand(in, w)
			require.NoError(t, err)
			assert.Len(t, symbols, len(in)*8/int(w))
			for _, s := range symbols {
				assert.LessOrEqual(t, s, w.Mask())
			}

			out, err := Collapse(symbols, w)
			require.NoError(t, err)
			assert.Equal(t, in, out, "bitwidth %d", w)
		}
	}
}

func TestCollapseDropsPartialGroup(t *testing.T) {
	symbols, err := Expand([]byte("AB"), 1)
	require.NoError(t, err)

	out, err := Collapse(symbols[:13], 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), out)

	out, err = Collapse(symbols[:7], 1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPackMasksHighBits(t *testing.T) {
	// high bits of each sample belong to the carrier and must be ignored
	samples := []byte{0xF1, 0xF0, 0xF0, 0xF0, 0xF0, 0xF0, 0xF0, 0xF1}
	assert.Equal(t, []byte{0x81}, Pack(slices.Values(samples), 1))
}

func TestSymbolsStopsEarly(t *testing.T) {
	var got []byte
	for s := range Symbols([]byte{0xFF, 0xFF}, 2) {
		got = append(got, s)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []byte{3, 3, 3}, got)
}
