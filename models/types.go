// Package models contain needed models
package models

// StegoResponse is returned as JSON whenever an endpoint fails or reports metadata
type StegoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CapacityResponse represents the response of a capacity query
type CapacityResponse struct {
	Success      bool   `json:"success"`
	Format       string `json:"format"`
	Samples      int    `json:"samples"`
	LSBBits      int    `json:"lsb_bits"`
	UseFootprint bool   `json:"use_footprint"`
	// Capacity is the number of secret file bytes that fit
	Capacity int `json:"capacity"`
}

// CarrierMetadata describes a loaded carrier
type CarrierMetadata struct {
	Format   string
	Width    int
	Height   int
	Channels int
	// Audio only
	SampleRate int
	BitDepth   int
}

// StegoConfig represents configuration for steganography operations.
// LSBBits is zero when a decode should infer it from the footprint.
type StegoConfig struct {
	LSBBits        int
	UseFootprint   bool
	SecretFilename string
}
