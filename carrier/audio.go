package carrier

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tosone/minimp3"

	"pixel-steganography/models"
)

const wavFormatPCM = 1

// Audio exposes the low byte of every PCM sample, interleaved across channels.
// It is always written back as WAV since a lossy re-encode would destroy the
// embedded bits.
type Audio struct {
	format  string
	buf     *audio.IntBuffer
	samples []byte
}

func LoadWAV(data []byte) (*Audio, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV audio format %d is not PCM", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %v", err)
	}
	buf.SourceBitDepth = int(decoder.BitDepth)

	return newAudio("wav", buf), nil
}

// LoadMP3 decodes MP3 frames to 16-bit PCM.
func LoadMP3(data []byte) (*Audio, error) {
	decoder, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode MP3: %v", ErrUnsupportedFormat, err)
	}
	defer decoder.Close()

	if decoder.Channels == 0 || len(pcm) == 0 {
		return nil, fmt.Errorf("%w: MP3 contains no audio frames", ErrUnsupportedFormat)
	}

	sampleCount := len(pcm) / 2
	ints := make([]int, sampleCount)
	for i := range sampleCount {
		// Little-endian 16-bit sample
		ints[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: decoder.Channels,
			SampleRate:  decoder.SampleRate,
		},
		Data:           ints,
		SourceBitDepth: 16,
	}
	return newAudio("mp3", buf), nil
}

func newAudio(format string, buf *audio.IntBuffer) *Audio {
	samples := make([]byte, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = byte(v)
	}
	return &Audio{format: format, buf: buf, samples: samples}
}

func (a *Audio) Samples() []byte {
	return a.samples
}

func (a *Audio) Metadata() models.CarrierMetadata {
	return models.CarrierMetadata{
		Format:     a.format,
		Channels:   a.buf.Format.NumChannels,
		SampleRate: a.buf.Format.SampleRate,
		BitDepth:   a.buf.SourceBitDepth,
	}
}

func (a *Audio) OutputFormat() string {
	return "wav"
}

func (a *Audio) Encode(w io.Writer, format string) error {
	if format != "" && format != "wav" {
		return unsupported(format)
	}

	for i, low := range a.samples {
		a.buf.Data[i] = a.buf.Data[i]&^0xFF | int(low)
	}

	// wav.NewEncoder needs a WriteSeeker
	tempFile, err := os.CreateTemp("", "stego_*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	meta := a.Metadata()
	encoder := wav.NewEncoder(tempFile, meta.SampleRate, meta.BitDepth, meta.Channels, wavFormatPCM)
	if err := encoder.Write(a.buf); err != nil {
		return fmt.Errorf("failed to encode WAV: %v", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close WAV encoder: %v", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind WAV data: %v", err)
	}
	if _, err := io.Copy(w, tempFile); err != nil {
		return fmt.Errorf("failed to write WAV data: %v", err)
	}
	return nil
}
