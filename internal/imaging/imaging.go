// Package imaging turns uploaded product photos into bounded thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// MaxUploadBytes bounds the size of an accepted upload.
	MaxUploadBytes = 8 << 20
	// MaxSourcePixels bounds the decoded size of an accepted upload.
	MaxSourcePixels = 40_000_000
	// DefaultBox is the thumbnail bounding box used by the console.
	DefaultBox = 512
	// JPEGQuality is the compression quality for JPEG output.
	JPEGQuality = 85
)

// ErrUnsupported is returned for data that is not an accepted image format.
var ErrUnsupported = errors.New("unsupported image format")

// decoders lists the accepted input formats keyed by sniffed MIME type.
var decoders = map[string]struct {
	decode       func(io.Reader) (image.Image, error)
	decodeConfig func(io.Reader) (image.Config, error)
}{
	"image/jpeg": {jpeg.Decode, jpeg.DecodeConfig},
	"image/png":  {png.Decode, png.DecodeConfig},
	"image/webp": {webp.Decode, webp.DecodeConfig},
	"image/bmp":  {bmp.Decode, bmp.DecodeConfig},
}

// Thumbnail is an encoded, downscaled image.
type Thumbnail struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// MakeThumbnail reads an image, checks its format by sniffing the bytes, and
// scales it to fit within a box x box square keeping its aspect ratio.
// Images already inside the box keep their size. PNG input stays PNG so that
// transparency survives; everything else is encoded as JPEG.
func MakeThumbnail(r io.Reader, box int) (*Thumbnail, error) {
	if box <= 0 {
		box = DefaultBox
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}

	mime := http.DetectContentType(data)
	dec, ok := decoders[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	cfg, err := dec.decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxSourcePixels {
		return nil, fmt.Errorf("image dimensions %dx%d too large", cfg.Width, cfg.Height)
	}

	img, err := dec.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, box)

	var buf bytes.Buffer
	out := "image/jpeg"
	if mime == "image/png" {
		out = mime
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	b := img.Bounds()
	return &Thumbnail{Data: buf.Bytes(), MIME: out, Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img so neither side exceeds box, using Catmull-Rom
// interpolation. Images already within bounds are returned as is.
func fit(img image.Image, box int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= box && h <= box {
		return img
	}

	newW, newH := box, box
	if w > h {
		newH = h * box / w
	} else {
		newW = w * box / h
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
