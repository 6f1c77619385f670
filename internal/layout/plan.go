package layout

import (
	"image"
	"image/color"
)

// TextRun is one line of banner text with a resolved baseline origin.
type TextRun struct {
	Text   string
	Role   Role
	Color  color.NRGBA
	Origin image.Point // baseline left
	Bounds image.Rectangle
}

// DividerSeg is one divider line segment.
type DividerSeg struct {
	From      image.Point
	To        image.Point
	Thickness int
	Color     color.NRGBA
}

// LogoPlacement positions the template logo. Exactly one of ImagePath or
// Text is set: file logos composite as images, anything else draws as
// footer text.
type LogoPlacement struct {
	ImagePath string
	Text      string
	Role      Role
	Color     color.NRGBA
	Rect      image.Rectangle
}

// Plan is the fully computed geometry for one render: canvas size, where
// the source image lands, the banner band, and every drawable in paint
// order. Plans are deterministic in their inputs and carry no wall-clock
// or random state.
type Plan struct {
	CanvasW int
	CanvasH int

	// ImageRect is where the (possibly letterboxed) source is drawn.
	ImageRect image.Rectangle
	// BandRect is the banner band.
	BandRect image.Rectangle
	// Overlay is true when the band is drawn over the source image
	// instead of on its own canvas area.
	Overlay bool

	Background color.NRGBA
	Texts      []TextRun
	Dividers   []DividerSeg
	Logo       *LogoPlacement
}
