// internal/escpos/raster.go
package escpos

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"
	"time"

	// Decoders for the formats a POS logo realistically arrives in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// DefaultMaxWidth is the printable dot width of a standard 80mm head.
const DefaultMaxWidth = 384

const fetchTimeout = 10 * time.Second

// ImageDecodeError reports an image source that could not be turned into
// a raster fragment. Callers treat it as "omit the logo", never as a
// print failure.
type ImageDecodeError struct {
	Reason string
	Err    error
}

func (e *ImageDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("image decode failed: %s", e.Reason)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// RasterEncoder converts arbitrary images into the printer's monochrome
// raster command block (GS v 0). Conversion is a hard threshold with no
// dithering; busy photographic logos will band, which is accepted.
type RasterEncoder struct {
	maxWidth int
	client   *http.Client
}

// NewRasterEncoder creates an encoder clamped to maxWidth printable dots.
// Zero or negative maxWidth selects the 80mm default.
func NewRasterEncoder(maxWidth int) *RasterEncoder {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &RasterEncoder{
		maxWidth: maxWidth,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// EncodeSource resolves an image reference (data URI, http(s) URL or bare
// base64) and encodes it. All failures come back as *ImageDecodeError.
func (e *RasterEncoder) EncodeSource(source string) ([]byte, error) {
	data, err := e.resolve(source)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageDecodeError{Reason: "unsupported or corrupt image data", Err: err}
	}

	return e.Encode(img), nil
}

// Encode converts a decoded image into a raster command fragment: header,
// then rows packed 8 pixels per byte, most significant bit first.
func (e *RasterEncoder) Encode(img image.Image) []byte {
	img = flatten(e.scaleDown(img))

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	rowBytes := (width + 7) / 8

	out := &bytes.Buffer{}
	out.Write(Commands.RasterHeader)
	out.WriteByte(byte(rowBytes))
	out.WriteByte(byte(rowBytes >> 8))
	out.WriteByte(byte(height))
	out.WriteByte(byte(height >> 8))

	row := make([]byte, rowBytes)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if isInk(img.At(x, y)) {
				col := x - bounds.Min.X
				row[col/8] |= 1 << (7 - uint(col)%8)
			}
		}
		out.Write(row)
	}

	return out.Bytes()
}

// scaleDown resizes wide images to the printable width, preserving aspect
// ratio. Narrow images pass through untouched; the head never upscales.
func (e *RasterEncoder) scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	if width <= e.maxWidth {
		return img
	}

	height := bounds.Dy() * e.maxWidth / width
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, e.maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

// flatten composites the image over a white background. Logos commonly
// arrive as PNGs with a transparent background, and a transparent pixel
// must read as paper, not ink.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	xdraw.Draw(dst, bounds, image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(dst, bounds, img, bounds.Min, xdraw.Over)
	return dst
}

func (e *RasterEncoder) resolve(source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		idx := strings.Index(source, ",")
		if idx < 0 {
			return nil, &ImageDecodeError{Reason: "malformed data URI"}
		}
		data, err := base64.StdEncoding.DecodeString(source[idx+1:])
		if err != nil {
			return nil, &ImageDecodeError{Reason: "malformed data URI payload", Err: err}
		}
		return data, nil

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return e.fetch(source)

	default:
		data, err := base64.StdEncoding.DecodeString(source)
		if err != nil {
			return nil, &ImageDecodeError{Reason: "source is neither data URI, URL nor base64", Err: err}
		}
		return data, nil
	}
}

func (e *RasterEncoder) fetch(url string) ([]byte, error) {
	resp, err := e.client.Get(url)
	if err != nil {
		return nil, &ImageDecodeError{Reason: "image URL unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ImageDecodeError{Reason: fmt.Sprintf("image URL returned status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ImageDecodeError{Reason: "reading image body failed", Err: err}
	}
	return data, nil
}

// isInk applies the luminance threshold: dark pixels print, light pixels
// stay paper.
func isInk(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}
