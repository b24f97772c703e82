// Package stego implements LSB embedding of files into carrier samples
package stego

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"pixel-steganography/models"
)

const (
	// footprintMask covers the bitwidth code stored in sample 0.
	footprintMask   = 0b11
	extensionEnd    = 0x00
	DataLengthBytes = 4
)

// Secret is a file recovered from a carrier.
type Secret struct {
	Content []byte
	// Extension is empty in raw mode or when the footprint recorded none.
	Extension string
}

// FileName appends the recovered extension, if any, to base.
func (s *Secret) FileName(base string) string {
	if s.Extension == "" {
		return base
	}
	return base + "." + s.Extension
}

type LSBSteganography struct {
	config *models.StegoConfig
}

func NewLSBSteganography(config *models.StegoConfig) *LSBSteganography {
	return &LSBSteganography{config: config}
}

// ExtensionOf returns the extension of name without its leading dot.
func ExtensionOf(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// BuildPayload lays out content for embedding. Without a footprint the payload is
// content itself, otherwise it is ext NUL length(BE32) content.
func BuildPayload(content []byte, fileName string, footprint bool) ([]byte, error) {
	if !footprint {
		return content, nil
	}
	if uint64(len(content)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes cannot be described by a 32-bit length", ErrCapacity, len(content))
	}

	ext := ExtensionOf(fileName)
	payload := make([]byte, 0, len(ext)+1+DataLengthBytes+len(content))
	payload = append(payload, ext...)
	payload = append(payload, extensionEnd)
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(content)))
	payload = append(payload, content...)
	return payload, nil
}

func start(footprint bool) int {
	if footprint {
		return 1
	}
	return 0
}

// PayloadCapacity is how many payload bytes fit in sampleCount samples.
func PayloadCapacity(sampleCount int, w Bitwidth, footprint bool) int {
	usable := sampleCount - start(footprint)
	if usable <= 0 || !w.Valid() {
		return 0
	}
	return usable * int(w) / 8
}

// CalculateCapacity reports how many bytes of file content fit in sampleCount
// samples, accounting for the footprint framing of the configured file name.
func (lsb *LSBSteganography) CalculateCapacity(sampleCount int) (int, error) {
	w, err := ParseBitwidth(lsb.config.LSBBits)
	if err != nil {
		return 0, err
	}

	capacity := PayloadCapacity(sampleCount, w, lsb.config.UseFootprint)
	if lsb.config.UseFootprint {
		capacity -= len(ExtensionOf(lsb.config.SecretFilename)) + 1 + DataLengthBytes
	}
	return max(capacity, 0), nil
}

// Embed writes secretData into the low bits of samples in place. On error
// samples is left untouched.
func (lsb *LSBSteganography) Embed(samples []byte, secretData []byte) error {
	w, err := ParseBitwidth(lsb.config.LSBBits)
	if err != nil {
		return err
	}

	payload, err := BuildPayload(secretData, lsb.config.SecretFilename, lsb.config.UseFootprint)
	if err != nil {
		return err
	}

	begin := start(lsb.config.UseFootprint)
	symbolCount := len(payload) * w.SymbolsPerByte()
	if symbolCount+begin > len(samples) {
		return fmt.Errorf("%w: payload needs %d samples at bitwidth %d, carrier has %d",
			ErrCapacity, symbolCount+begin, w, len(samples))
	}

	if lsb.config.UseFootprint {
		samples[0] = samples[0]&^footprintMask | w.Code()
	}

	mask := w.Mask()
	pos := begin
	for symbol := range Symbols(payload, w) {
		samples[pos] = samples[pos]&^mask | symbol
		pos++
	}

	return nil
}

// Extract recovers a file from samples. Exactly one of UseFootprint or LSBBits
// must be set. In raw mode the whole carrier is returned because nothing records
// where the content ends.
func (lsb *LSBSteganography) Extract(samples []byte) (*Secret, error) {
	footprint := lsb.config.UseFootprint
	explicit := lsb.config.LSBBits != 0
	if footprint == explicit {
		return nil, fmt.Errorf("%w: exactly one of footprint or bitwidth must be given", ErrConfig)
	}

	var (
		w   Bitwidth
		err error
	)
	if footprint {
		if len(samples) == 0 {
			return nil, fmt.Errorf("%w: carrier is empty", ErrMalformedFootprint)
		}
		w, err = BitwidthFromCode(samples[0] & footprintMask)
	} else {
		w, err = ParseBitwidth(lsb.config.LSBBits)
	}
	if err != nil {
		return nil, err
	}

	begin := min(start(footprint), len(samples))
	extracted := Pack(slices.Values(samples[begin:]), w)

	if !footprint {
		if extracted == nil {
			extracted = []byte{}
		}
		return &Secret{Content: extracted}, nil
	}

	return parseFootprinted(extracted)
}

func parseFootprinted(data []byte) (*Secret, error) {
	extEnd := bytes.IndexByte(data, extensionEnd)
	if extEnd < 0 {
		return nil, fmt.Errorf("%w: no extension terminator in %d decoded bytes", ErrMalformedFootprint, len(data))
	}

	ext := make([]rune, extEnd)
	for i, b := range data[:extEnd] {
		if !extensionByte(b) {
			return nil, fmt.Errorf("%w: byte %#02x not allowed in extension", ErrMalformedFootprint, b)
		}
		ext[i] = rune(b)
	}
	if strings.Contains(string(ext), "..") {
		return nil, fmt.Errorf("%w: extension %q escapes the output name", ErrMalformedFootprint, string(ext))
	}

	lengthStart := extEnd + 1
	if len(data)-lengthStart < DataLengthBytes {
		return nil, fmt.Errorf("%w: need %d length bytes, %d remain",
			ErrTruncatedPayload, DataLengthBytes, len(data)-lengthStart)
	}
	dataLen := binary.BigEndian.Uint32(data[lengthStart : lengthStart+DataLengthBytes])

	dataStart := lengthStart + DataLengthBytes
	if uint64(dataLen) > uint64(len(data)-dataStart) {
		return nil, fmt.Errorf("%w: declared %d bytes, got %d", ErrTruncatedPayload, dataLen, len(data)-dataStart)
	}

	content := make([]byte, dataLen)
	copy(content, data[dataStart:dataStart+int(dataLen)])
	return &Secret{Content: content, Extension: string(ext)}, nil
}

// extensionByte rejects path separators and control bytes so a recovered
// extension can only ever extend a file name.
func extensionByte(b byte) bool {
	return b >= 0x20 && b != 0x7F && b != '/' && b != '\\'
}
