package stego

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-steganography/models"
)

func carrier(n int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, n)
}

func TestBuildPayload(t *testing.T) {
	raw, err := BuildPayload([]byte("data"), "secret.txt", false)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), raw)

	framed, err := BuildPayload([]byte("data"), "dir/secret.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("txt\x00\x00\x00\x00\x04data"), framed)

	noExt, err := BuildPayload([]byte("x"), "Makefile", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00\x00\x00\x00\x01x"), noExt)
}

func TestEmbedConcreteScenario(t *testing.T) {
	samples := carrier(16, 0)
	lsb := NewLSBSteganography(&models.StegoConfig{LSBBits: 1})
	require.NoError(t, lsb.Embed(samples, []byte("AB")))

	want := []byte{
		0, 1, 0, 0, 0, 0, 0, 1,
		0, 1, 0, 0, 0, 0, 1, 0,
	}
	assert.Equal(t, want, samples)

	secret, err := lsb.Extract(samples)
	require.NoError(t, err)
	assert.Equal(t, []byte("AB"), secret.Content)
	assert.Empty(t, secret.Extension)
}

func TestEmbedPreservesHighBits(t *testing.T) {
	for _, w := range bitwidths {
		samples := carrier(64, 0xFF)
		lsb := NewLSBSteganography(&models.StegoConfig{LSBBits: int(w)})
		require.NoError(t, lsb.Embed(samples, []byte{0x00, 0x00}))

		used := 2 * w.SymbolsPerByte()
		for i, s := range samples {
			if i < used {
				assert.Equal(t, ^w.Mask(), s, "sample %d bitwidth %d", i, w)
			} else {
				assert.Equal(t, byte(0xFF), s, "sample %d bitwidth %d", i, w)
			}
		}
	}
}

func TestCapacityBoundary(t *testing.T) {
	for _, w := range bitwidths {
		for _, footprint := range []bool{false, true} {
			samples := carrier(101, 0x80)
			cfg := &models.StegoConfig{LSBBits: int(w), UseFootprint: footprint, SecretFilename: "a.bin"}
			lsb := NewLSBSteganography(cfg)

			capacity, err := lsb.CalculateCapacity(len(samples))
			require.NoError(t, err)

			overhead := 0
			if footprint {
				overhead = len("bin") + 1 + DataLengthBytes
			}
			assert.Equal(t, PayloadCapacity(len(samples), w, footprint)-overhead, capacity)

			fits := bytes.Repeat([]byte{0x5C}, capacity)
			require.NoError(t, lsb.Embed(samples, fits), "bitwidth %d footprint %v", w, footprint)

			untouched := carrier(101, 0x80)
			err = lsb.Embed(untouched, append(fits, 0x01))
			assert.ErrorIs(t, err, ErrCapacity, "bitwidth %d footprint %v", w, footprint)
			assert.Equal(t, carrier(101, 0x80), untouched)
		}
	}
}

func TestFootprintRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, w := range bitwidths {
		samples := carrier(4096, 0xAA)
		enc := NewLSBSteganography(&models.StegoConfig{LSBBits: int(w), UseFootprint: true, SecretFilename: "notes.txt"})
		require.NoError(t, enc.Embed(samples, data))

		// high bits of the footprint sample stay with the carrier
		assert.Equal(t, byte(0xAA)&^footprintMask, samples[0]&^footprintMask)
		assert.Equal(t, w.Code(), samples[0]&footprintMask)

		dec := NewLSBSteganography(&models.StegoConfig{UseFootprint: true})
		secret, err := dec.Extract(samples)
		require.NoError(t, err)
		assert.Equal(t, "txt", secret.Extension)
		assert.Equal(t, data, secret.Content)
	}
}

func TestFootprintOnlyTouchesCodeBits(t *testing.T) {
	// with a footprint, sample 0 differs from the original only in its low 2 bits
	// while without one it carries the first payload symbol
	const fill = byte(0xAC)
	data := []byte{0xFF}
	for _, w := range bitwidths {
		plain := carrier(64, fill)
		framed := carrier(64, fill)

		require.NoError(t, NewLSBSteganography(&models.StegoConfig{LSBBits: int(w)}).Embed(plain, data))
		require.NoError(t, NewLSBSteganography(&models.StegoConfig{LSBBits: int(w), UseFootprint: true}).Embed(framed, data))

		assert.Equal(t, fill&^w.Mask()|w.Mask(), plain[0], "bitwidth %d", w)
		assert.Equal(t, fill&^footprintMask, framed[0]&^footprintMask, "bitwidth %d", w)
		assert.Equal(t, w.Code(), framed[0]&footprintMask, "bitwidth %d", w)

		// the payload itself starts one sample later
		ext, err := Expand([]byte{extensionEnd}, w)
		require.NoError(t, err)
		for i, sym := range ext {
			assert.Equal(t, fill&^w.Mask()|sym, framed[1+i], "bitwidth %d sample %d", w, 1+i)
		}
	}
}

func TestRawExtractReturnsWholeCarrier(t *testing.T) {
	samples := carrier(30, 0)
	lsb := NewLSBSteganography(&models.StegoConfig{LSBBits: 2})
	require.NoError(t, lsb.Embed(samples, []byte("hi")))

	secret, err := lsb.Extract(samples)
	require.NoError(t, err)
	// 30 samples at 2 bits hold 7 full bytes, the trailing 2 samples are dropped
	assert.Len(t, secret.Content, 7)
	assert.Equal(t, []byte("hi"), secret.Content[:2])
	assert.Equal(t, make([]byte, 5), secret.Content[2:])
}

func TestExtractConfigErrors(t *testing.T) {
	samples := carrier(64, 0)

	_, err := NewLSBSteganography(&models.StegoConfig{}).Extract(samples)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewLSBSteganography(&models.StegoConfig{LSBBits: 2, UseFootprint: true}).Extract(samples)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewLSBSteganography(&models.StegoConfig{LSBBits: 3}).Extract(samples)
	assert.ErrorIs(t, err, ErrInvalidBitwidth)

	err = NewLSBSteganography(&models.StegoConfig{LSBBits: 16}).Embed(samples, []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidBitwidth)
}

// writeSymbols lays payload out the way Embed does, after a footprint for w.
func writeSymbols(t *testing.T, samples []byte, payload []byte, w Bitwidth) {
	t.Helper()
	symbols, err := Expand(payload, w)
	require.NoError(t, err)
	require.LessOrEqual(t, len(symbols)+1, len(samples))
	samples[0] = w.Code()
	copy(samples[1:], symbols)
}

func TestExtractTruncatedPayload(t *testing.T) {
	payload := []byte("bin\x00")
	payload = binary.BigEndian.AppendUint32(payload, 100)
	payload = append(payload, bytes.Repeat([]byte{'z'}, 50)...)

	// room for exactly the crafted payload and nothing more
	samples := carrier(1+len(payload)*2, 0)
	writeSymbols(t, samples, payload, 4)

	_, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
	assert.ErrorIs(t, err, ErrTruncatedPayload)
}

func TestExtractTruncatedLength(t *testing.T) {
	samples := carrier(1+6*2, 0)
	writeSymbols(t, samples, []byte("ab\x00\x00\x00\x00"), 4)

	_, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
	assert.ErrorIs(t, err, ErrTruncatedPayload)
}

func TestExtractMissingTerminator(t *testing.T) {
	samples := carrier(1+64, 0xFF)
	samples[0] = Bitwidth8.Code()

	_, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
	assert.ErrorIs(t, err, ErrMalformedFootprint)

	_, err = NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(nil)
	assert.ErrorIs(t, err, ErrMalformedFootprint)
}

func TestExtractRejectsUnsafeExtension(t *testing.T) {
	for _, ext := range []string{"../evil", "a/b", `a\b`, "..", "t\x01xt"} {
		payload := append([]byte(ext), extensionEnd)
		payload = binary.BigEndian.AppendUint32(payload, 2)
		payload = append(payload, "ok"...)

		samples := carrier(1+len(payload), 0)
		writeSymbols(t, samples, payload, Bitwidth8)

		_, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
		assert.ErrorIs(t, err, ErrMalformedFootprint, "extension %q", ext)
	}

	// dots on their own are fine
	payload := append([]byte("tar.gz"), extensionEnd)
	payload = binary.BigEndian.AppendUint32(payload, 2)
	payload = append(payload, "ok"...)
	samples := carrier(1+len(payload), 0)
	writeSymbols(t, samples, payload, Bitwidth8)

	secret, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
	require.NoError(t, err)
	assert.Equal(t, "tar.gz", secret.Extension)
	assert.Equal(t, "out.tar.gz", secret.FileName("out"))
}

func TestEmptyExtensionRoundTrip(t *testing.T) {
	samples := carrier(256, 0x33)
	enc := NewLSBSteganography(&models.StegoConfig{LSBBits: 8, UseFootprint: true, SecretFilename: "README"})
	require.NoError(t, enc.Embed(samples, []byte("plain")))

	secret, err := NewLSBSteganography(&models.StegoConfig{UseFootprint: true}).Extract(samples)
	require.NoError(t, err)
	assert.Equal(t, "", secret.Extension)
	assert.Equal(t, []byte("plain"), secret.Content)
}

func TestSecretFileName(t *testing.T) {
	assert.Equal(t, "out.txt", (&Secret{Extension: "txt"}).FileName("out"))
	assert.Equal(t, "out", (&Secret{}).FileName("out"))
}
