package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ImageOptions controls how uploads are normalized before storage.
type ImageOptions struct {
	MaxDimension int // longest edge in pixels
	Quality      int // JPEG quality (1-100)
}

// DefaultImageOptions match what the gallery has always stored.
var DefaultImageOptions = ImageOptions{MaxDimension: 800, Quality: 85}

// Validate checks if the options are usable
func (o ImageOptions) Validate() error {
	if o.MaxDimension <= 0 {
		return fmt.Errorf("max dimension must be positive")
	}
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100")
	}
	return nil
}

// NormalizedImage is an upload ready to be stored.
type NormalizedImage struct {
	Data         []byte
	Width        int
	Height       int
	SourceFormat string
}

// NormalizeImage decodes any supported image, applies EXIF orientation,
// flattens transparency onto white, shrinks it to fit within
// MaxDimension x MaxDimension and re-encodes it as JPEG. Smaller images are
// never enlarged.
func NormalizeImage(input io.Reader, opts ImageOptions) (*NormalizedImage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	img := imaging.Overlay(background, src, image.Pt(0, 0), 1.0)

	if bounds.Dx() > opts.MaxDimension || bounds.Dy() > opts.MaxDimension {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	final := img.Bounds()
	return &NormalizedImage{
		Data:         buf.Bytes(),
		Width:        final.Dx(),
		Height:       final.Dy(),
		SourceFormat: format,
	}, nil
}

// NewImageName returns a fresh unique file name for a stored image.
func NewImageName() string {
	return uuid.NewString() + ".jpg"
}
