// Package handlers is made to handle requests
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pixel-steganography/carrier"
	"pixel-steganography/models"
	"pixel-steganography/stego"
)

type StegoHandler struct {
	maxUploadBytes int64
}

func NewStegoHandler(maxUploadBytes int64) *StegoHandler {
	return &StegoHandler{maxUploadBytes: maxUploadBytes}
}

func (h *StegoHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Steganography API is running",
		"version": "1.0.0",
	})
}

func (h *StegoHandler) Capacity(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	lsbBits, ok := requireLSBBits(c)
	if !ok {
		return
	}

	cover, ok := h.loadCarrier(c, "carrier_file")
	if !ok {
		return
	}

	config := &models.StegoConfig{
		LSBBits:        lsbBits,
		UseFootprint:   c.PostForm("use_footprint") == "true",
		SecretFilename: c.PostForm("secret_filename"),
	}
	capacity, err := stego.NewLSBSteganography(config).CalculateCapacity(len(cover.Samples()))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CapacityResponse{
		Success:      true,
		Format:       cover.Metadata().Format,
		Samples:      len(cover.Samples()),
		LSBBits:      lsbBits,
		UseFootprint: config.UseFootprint,
		Capacity:     capacity,
	})
}

func (h *StegoHandler) EncodeFile(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	lsbBits, ok := requireLSBBits(c)
	if !ok {
		return
	}

	cover, ok := h.loadCarrier(c, "carrier_file")
	if !ok {
		return
	}

	secretFile, secretHeader, err := c.Request.FormFile("secret_file")
	if err != nil {
		respond(c, http.StatusBadRequest, "Secret file is required")
		return
	}
	defer secretFile.Close()

	secretData, err := io.ReadAll(secretFile)
	if err != nil {
		respond(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read secret file: %v", err))
		return
	}

	config := &models.StegoConfig{
		LSBBits:        lsbBits,
		UseFootprint:   c.PostForm("use_footprint") == "true",
		SecretFilename: secretHeader.Filename,
	}
	lsb := stego.NewLSBSteganography(config)

	samples := cover.Samples()
	original := bytes.Clone(samples)
	if err := lsb.Embed(samples, secretData); err != nil {
		fail(c, err)
		return
	}
	capacity, err := lsb.CalculateCapacity(len(samples))
	if err != nil {
		fail(c, err)
		return
	}
	psnr := carrier.CalculatePSNR(original, samples)

	format := c.PostForm("output_format")
	if format == "" {
		format = cover.OutputFormat()
	}
	var out bytes.Buffer
	if err := cover.Encode(&out, format); err != nil {
		fail(c, err)
		return
	}

	outputFilename := "out." + format

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(outputFilename))

	c.Header("X-Stego-PSNR", carrier.FormatPSNR(psnr))
	c.Header("X-Stego-Capacity", strconv.Itoa(capacity))
	c.Header("X-Stego-Message", "Secret file successfully embedded")

	c.Data(http.StatusOK, carrier.ContentType(format), out.Bytes())
}

func (h *StegoHandler) DecodeFile(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	config := &models.StegoConfig{
		UseFootprint: c.PostForm("use_footprint") == "true",
	}
	if raw := c.PostForm("lsb_bits"); raw != "" {
		lsbBits, err := strconv.Atoi(raw)
		if err != nil {
			respond(c, http.StatusBadRequest, "LSB bits must be 1, 2, 4 or 8")
			return
		}
		config.LSBBits = lsbBits
	}

	stegoFile, ok := h.loadCarrier(c, "stego_file")
	if !ok {
		return
	}

	secret, err := stego.NewLSBSteganography(config).Extract(stegoFile.Samples())
	if err != nil {
		fail(c, err)
		return
	}

	secretFilename := secret.FileName("out")

	// Set headers for file download
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", attachment(secretFilename))

	c.Data(http.StatusOK, "application/octet-stream", secret.Content)
}

func (h *StegoHandler) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respond(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return false
	}
	return true
}

func requireLSBBits(c *gin.Context) (int, bool) {
	lsbBits, err := strconv.Atoi(c.PostForm("lsb_bits"))
	if err != nil {
		respond(c, http.StatusBadRequest, "LSB bits must be 1, 2, 4 or 8")
		return 0, false
	}
	if _, err := stego.ParseBitwidth(lsbBits); err != nil {
		respond(c, http.StatusBadRequest, "LSB bits must be 1, 2, 4 or 8")
		return 0, false
	}
	return lsbBits, true
}

func (h *StegoHandler) loadCarrier(c *gin.Context, field string) (carrier.Carrier, bool) {
	file, _, err := c.Request.FormFile(field)
	if err != nil {
		respond(c, http.StatusBadRequest, fmt.Sprintf("Carrier file %q is required", field))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond(c, http.StatusInternalServerError, fmt.Sprintf("Failed to read carrier file: %v", err))
		return nil, false
	}

	cover, err := carrier.Load(data)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return cover, true
}

// attachment quotes name as needed for a Content-Disposition header.
func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func respond(c *gin.Context, status int, message string) {
	c.JSON(status, models.StegoResponse{
		Success: false,
		Message: message,
	})
}

// fail maps core errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stego.ErrInvalidBitwidth),
		errors.Is(err, stego.ErrConfig),
		errors.Is(err, stego.ErrCapacity),
		errors.Is(err, carrier.ErrAlphaLost):
		status = http.StatusBadRequest
	case errors.Is(err, stego.ErrMalformedFootprint),
		errors.Is(err, stego.ErrTruncatedPayload):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, carrier.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	}
	respond(c, status, err.Error())
}
