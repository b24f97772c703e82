package carrier

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixel-steganography/models"
)

// Image exposes an image's channel bytes in row-major scan order. Grayscale
// images have one sample per pixel, opaque colour images three (R, G, B) and
// images with transparency four (R, G, B, A).
type Image struct {
	format   string
	channels int
	gray     *image.Gray
	nrgba    *image.NRGBA
	samples  []byte
}

// LoadImage decodes any registered image format. Lossy or paletted inputs are
// converted and can only be written back losslessly.
func LoadImage(data []byte) (*Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return NewImage(src, format), nil
}

func NewImage(src image.Image, format string) *Image {
	b := src.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())
	img := &Image{format: format}

	if isGray(src) {
		img.gray = image.NewGray(rect)
		switch g := src.(type) {
		case *image.Gray:
			copyRows(img.gray.Pix, img.gray.Stride, g.Pix[g.PixOffset(b.Min.X, b.Min.Y):], g.Stride, rect.Dx(), rect.Dy())
		case *image.Paletted:
			// gray BMPs come back as a 256-entry gray palette
			copyRows(img.gray.Pix, img.gray.Stride, g.Pix[g.PixOffset(b.Min.X, b.Min.Y):], g.Stride, rect.Dx(), rect.Dy())
		}
		img.channels = 1
		img.samples = img.gray.Pix
		return img
	}

	img.nrgba = image.NewNRGBA(rect)
	if n, ok := src.(*image.NRGBA); ok {
		// draw would round-trip through premultiplied alpha and lose low bits
		copyRows(img.nrgba.Pix, img.nrgba.Stride, n.Pix[n.PixOffset(b.Min.X, b.Min.Y):], n.Stride, rect.Dx()*4, rect.Dy())
	} else {
		draw.Draw(img.nrgba, rect, src, b.Min, draw.Src)
	}
	if !img.nrgba.Opaque() {
		img.channels = 4
		img.samples = img.nrgba.Pix
		return img
	}

	img.channels = 3
	img.samples = make([]byte, 0, rect.Dx()*rect.Dy()*3)
	for i := 0; i < len(img.nrgba.Pix); i += 4 {
		img.samples = append(img.samples, img.nrgba.Pix[i:i+3]...)
	}
	return img
}

func copyRows(dst []byte, dstStride int, src []byte, srcStride int, rowBytes, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:])
	}
}

func isGray(src image.Image) bool {
	switch s := src.(type) {
	case *image.Gray:
		return true
	case *image.Paletted:
		return isGrayRamp(s.Palette)
	}
	return false
}

func isGrayRamp(p color.Palette) bool {
	if len(p) != 256 {
		return false
	}
	for i, c := range p {
		r, g, b, a := c.RGBA()
		if r>>8 != uint32(i) || g>>8 != uint32(i) || b>>8 != uint32(i) || a != 0xFFFF {
			return false
		}
	}
	return true
}

func (img *Image) Samples() []byte {
	return img.samples
}

func (img *Image) Metadata() models.CarrierMetadata {
	size := img.image().Bounds().Size()
	return models.CarrierMetadata{
		Format:   img.format,
		Width:    size.X,
		Height:   size.Y,
		Channels: img.channels,
	}
}

func (img *Image) OutputFormat() string {
	return "png"
}

func (img *Image) image() image.Image {
	if img.gray != nil {
		return img.gray
	}
	return img.nrgba
}

// sync copies RGB samples back into the pixel buffer. Gray and RGBA samples
// alias the pixels already.
func (img *Image) sync() {
	if img.channels != 3 {
		return
	}
	for i, p := 0, 0; i < len(img.samples); i, p = i+3, p+4 {
		copy(img.nrgba.Pix[p:p+3], img.samples[i:i+3])
	}
}

// Encode writes the carrier losslessly. Four-channel carriers must still carry
// some transparency and cannot go to BMP, or they would reload as RGB.
func (img *Image) Encode(w io.Writer, format string) error {
	img.sync()
	if img.channels == 4 && img.nrgba.Opaque() {
		return ErrAlphaLost
	}
	switch format {
	case "", "png":
		return png.Encode(w, img.image())
	case "bmp":
		if img.channels == 4 {
			return fmt.Errorf("%w: bmp cannot keep the alpha channel", ErrUnsupportedFormat)
		}
		return bmp.Encode(w, img.image())
	case "tiff":
		return tiff.Encode(w, img.image(), &tiff.Options{Compression: tiff.Deflate})
	}
	return unsupported(format)
}
