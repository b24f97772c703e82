// Package carrier loads cover files into flat sample buffers and writes them back
package carrier

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pixel-steganography/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported carrier format")
	// ErrAlphaLost means embedding left every alpha value at 255, so the written
	// image would reload with three channels instead of four.
	ErrAlphaLost = errors.New("embedding made the alpha channel fully opaque")
)

// Carrier is a decoded cover file. Samples returns the live sample buffer:
// changes to it are written out by Encode.
type Carrier interface {
	Samples() []byte
	Metadata() models.CarrierMetadata
	// OutputFormat is the lossless format Encode uses when none is requested.
	OutputFormat() string
	Encode(w io.Writer, format string) error
}

// Load sniffs data and decodes it into a carrier.
func Load(data []byte) (Carrier, error) {
	var (
		c   Carrier
		err error
	)
	switch {
	case isWAV(data):
		c, err = LoadWAV(data)
	case isMP3(data):
		c, err = LoadMP3(data)
	default:
		c, err = LoadImage(data)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// FormatForPath picks an output format from a file name's extension. Unknown
// extensions get an empty format, meaning the carrier's default.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".wav":
		return "wav"
	}
	return ""
}

func ContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

func unsupported(format string) error {
	return fmt.Errorf("%w: cannot write %q", ErrUnsupportedFormat, format)
}
