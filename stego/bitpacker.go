package stego

import (
	"fmt"
	"iter"
	"slices"
)

// Bitwidth is the number of low bits of each carrier sample that hold one symbol.
type Bitwidth uint8

const (
	Bitwidth1 Bitwidth = 1
	Bitwidth2 Bitwidth = 2
	Bitwidth4 Bitwidth = 4
	Bitwidth8 Bitwidth = 8
)

var bitwidths = [...]Bitwidth{Bitwidth1, Bitwidth2, Bitwidth4, Bitwidth8}

// ParseBitwidth validates n as one of 1, 2, 4 or 8.
func ParseBitwidth(n int) (Bitwidth, error) {
	for _, w := range bitwidths {
		if int(w) == n {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %d (must be 1, 2, 4 or 8)", ErrInvalidBitwidth, n)
}

// BitwidthFromCode maps a 2-bit footprint code to its bitwidth.
func BitwidthFromCode(code uint8) (Bitwidth, error) {
	if code > 3 {
		return 0, fmt.Errorf("%w: footprint code %d", ErrInvalidBitwidth, code)
	}
	return Bitwidth(1 << code), nil
}

func (w Bitwidth) Valid() bool {
	return slices.Contains(bitwidths[:], w)
}

// Code is the index of w in (1, 2, 4, 8).
func (w Bitwidth) Code() uint8 {
	return uint8(slices.Index(bitwidths[:], w))
}

// Mask selects the low w bits of a sample.
func (w Bitwidth) Mask() byte {
	return byte(1<<w - 1)
}

// SymbolsPerByte is how many samples one payload byte occupies.
func (w Bitwidth) SymbolsPerByte() int {
	return 8 / int(w)
}

func (w Bitwidth) check() error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d (must be 1, 2, 4 or 8)", ErrInvalidBitwidth, w)
	}
	return nil
}

// Symbols yields the w-bit groups of data, most significant group of each byte first.
// w must be valid.
func Symbols(data []byte, w Bitwidth) iter.Seq[byte] {
	mask := w.Mask()
	return func(yield func(byte) bool) {
		for _, b := range data {
			for shift := 8 - int(w); shift >= 0; shift -= int(w) {
				if !yield(b >> shift & mask) {
					return
				}
			}
		}
	}
}

// Pack rebuilds bytes from a stream of symbols. Only the low w bits of each symbol
// are used and a trailing incomplete group is dropped. w must be valid.
func Pack(symbols iter.Seq[byte], w Bitwidth) []byte {
	var (
		out   []byte
		acc   byte
		count int
	)
	perByte := w.SymbolsPerByte()
	mask := w.Mask()
	for s := range symbols {
		acc = acc<<w | s&mask
		count++
		if count == perByte {
			out = append(out, acc)
			acc, count = 0, 0
		}
	}
	return out
}

// Expand splits every byte of data into 8/w symbols.
func Expand(data []byte, w Bitwidth) ([]byte, error) {
	if err := w.check(); err != nil {
		return nil, err
	}
	symbols := make([]byte, 0, len(data)*w.SymbolsPerByte())
	for s := range Symbols(data, w) {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// Collapse is the inverse of Expand. A trailing partial group of symbols is
// silently dropped.
func Collapse(symbols []byte, w Bitwidth) ([]byte, error) {
	if err := w.check(); err != nil {
		return nil, err
	}
	out := Pack(slices.Values(symbols), w)
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
