package lands

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/webp"

	"cardcap/internal/project"
)

const (
	defaultCardWidth  = 1500
	defaultCardHeight = 2100
)

// Placement is an art position in card-relative units plus a zoom factor.
type Placement struct {
	X, Y, Zoom float64
}

// Frame is the geometry of a template card: its pixel size, art bounds and
// margins, with bounds and margins relative to the card size.
type Frame struct {
	Width, Height    float64
	Bounds           project.Rect
	MarginX, MarginY float64
}

// FrameOf reads the geometry of card. It reports false when the card has no
// art bounds.
func FrameOf(card project.Card) (Frame, bool) {
	bounds, ok := card.Bounds("artBounds")
	if !ok {
		return Frame{}, false
	}
	return Frame{
		Width:   card.Number("width", defaultCardWidth),
		Height:  card.Number("height", defaultCardHeight),
		Bounds:  bounds,
		MarginX: card.Number("marginX", 0),
		MarginY: card.Number("marginY", 0),
	}, true
}

// FitArt scales art of the given pixel size to cover the frame's art bounds
// and centers it along the overflowing axis, the way the renderer's auto-fit
// does.
func FitArt(f Frame, artWidth, artHeight float64) (Placement, error) {
	if artWidth <= 0 || artHeight <= 0 || f.Width <= 0 || f.Height <= 0 {
		return Placement{}, fmt.Errorf("cannot fit %vx%v art into %vx%v card", artWidth, artHeight, f.Width, f.Height)
	}
	boundsX, boundsY := f.Bounds.X*f.Width, f.Bounds.Y*f.Height
	boundsW, boundsH := f.Bounds.Width*f.Width, f.Bounds.Height*f.Height
	marginX, marginY := f.MarginX*f.Width, f.MarginY*f.Height

	var x, y, zoom float64
	if artWidth/artHeight > boundsW/boundsH {
		zoom = boundsH / artHeight
		y = math.Round(boundsY - marginY)
		x = math.Round(boundsX - (zoom*artWidth-boundsW)/2 - marginX)
	} else {
		zoom = boundsW / artWidth
		x = math.Round(boundsX - marginX)
		y = math.Round(boundsY - (zoom*artHeight-boundsH)/2 - marginY)
	}
	return Placement{X: x / f.Width, Y: y / f.Height, Zoom: zoom}, nil
}

// imageSize decodes only the header of an image.
func imageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image size: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
