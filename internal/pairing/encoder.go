package pairing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Options fixes the geometry and colours of an encoded pairing image.
type Options struct {
	ModuleSize int // pixels per module
	Margin     int // quiet zone in modules
	Foreground color.Color
	Background color.Color
	Level      qrcode.RecoveryLevel
}

// DefaultOptions returns the settings used for pairing codes: error
// correction level H, 8px modules, a 4-module margin, black on white.
func DefaultOptions() Options {
	return Options{
		ModuleSize: 8,
		Margin:     4,
		Foreground: color.Black,
		Background: color.White,
		Level:      qrcode.Highest,
	}
}

// Image is an encoded pairing code.
type Image struct {
	PNG     []byte
	Modules [][]bool // symbol only, [row][col], true is dark
	Pixels  int      // width and height of the PNG
}

// Size returns the symbol width in modules.
func (img Image) Size() int { return len(img.Modules) }

// Encoder renders a payload into an Image.
type Encoder interface {
	Encode(ctx context.Context, payload string) (Image, error)
}

// QREncoder encodes payloads as QR codes. For a given payload and options
// the output is byte-for-byte identical.
type QREncoder struct {
	opts Options
}

var _ Encoder = (*QREncoder)(nil)

// NewQREncoder returns an encoder; zero-valued options fall back to
// DefaultOptions.
func NewQREncoder(opts Options) *QREncoder {
	def := DefaultOptions()
	if opts.ModuleSize <= 0 {
		opts.ModuleSize = def.ModuleSize
	}
	if opts.Margin < 0 {
		opts.Margin = def.Margin
	}
	if opts.Foreground == nil {
		opts.Foreground = def.Foreground
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return &QREncoder{opts: opts}
}

// Options returns the encoder's settings.
func (e *QREncoder) Options() Options { return e.opts }

// Encode renders payload. It fails for an empty payload or one beyond the
// symbol's capacity at the configured level.
func (e *QREncoder) Encode(ctx context.Context, payload string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	if payload == "" {
		return Image{}, ErrEmptyPayload
	}
	code, err := qrcode.New(payload, e.opts.Level)
	if err != nil {
		return Image{}, fmt.Errorf("encode qr: %w", err)
	}
	modules := trimQuietZone(code.Bitmap())
	if len(modules) == 0 {
		return Image{}, errors.New("encode qr: empty symbol")
	}

	img := e.render(modules)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Image{}, fmt.Errorf("encode png: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	return Image{PNG: buf.Bytes(), Modules: modules, Pixels: img.Bounds().Dx()}, nil
}

func (e *QREncoder) render(modules [][]bool) *image.Paletted {
	scale, margin := e.opts.ModuleSize, e.opts.Margin
	side := (len(modules) + 2*margin) * scale
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{e.opts.Background, e.opts.Foreground})
	// Index 0 is the background, so only dark modules need painting.
	for row, line := range modules {
		for col, dark := range line {
			if !dark {
				continue
			}
			x0 := (col + margin) * scale
			y0 := (row + margin) * scale
			for y := y0; y < y0+scale; y++ {
				for x := x0; x < x0+scale; x++ {
					img.SetColorIndex(x, y, 1)
				}
			}
		}
	}
	return img
}

// trimQuietZone crops a bitmap to the bounding box of its dark modules,
// which for a QR symbol is the symbol itself.
func trimQuietZone(bitmap [][]bool) [][]bool {
	top, left, bottom, right := len(bitmap), len(bitmap), -1, -1
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			top, bottom = min(top, y), max(bottom, y)
			left, right = min(left, x), max(right, x)
		}
	}
	if bottom < 0 {
		return nil
	}
	out := make([][]bool, 0, bottom-top+1)
	for y := top; y <= bottom; y++ {
		row := make([]bool, right-left+1)
		copy(row, bitmap[y][left:right+1])
		out = append(out, row)
	}
	return out
}
