package layout

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"golang.org/x/image/font"

	"birdstamp/internal/metadata"
	"birdstamp/internal/naming"
	"birdstamp/internal/template"
)

// ErrOverflow marks a drawable whose computed box falls entirely outside
// the canvas. It fails the file, never the batch.
var ErrOverflow = errors.New("layout element outside canvas")

const (
	fitAspect      = 3.0 / 2.0
	maxColumnRows  = 3
	minColumnWidth = 30
)

// Engine computes layout plans for one template. It holds per-job faces
// and must not be shared between goroutines.
type Engine struct {
	tpl         *template.Template
	faces       *FaceSet
	showEqFocal bool
}

// NewEngine builds an engine over a validated template and its faces.
func NewEngine(tpl *template.Template, faces *FaceSet, showEqFocal bool) *Engine {
	return &Engine{tpl: tpl, faces: faces, showEqFocal: showEqFocal}
}

type row struct {
	text  string
	role  Role
	muted bool
}

// Plan computes geometry for a transformed source of imgW by imgH under
// the template's output mode. The same inputs always produce an identical
// plan.
func (e *Engine) Plan(meta metadata.Normalized, name naming.Resolution, imgW, imgH int) (*Plan, error) {
	if imgW <= 0 || imgH <= 0 {
		return nil, fmt.Errorf("invalid source dimensions %dx%d", imgW, imgH)
	}

	left, right := e.collectRows(meta, name)
	band := e.bandHeight(imgW, left, right)

	plan := &Plan{Background: e.tpl.Palette.Background}
	switch e.tpl.Mode {
	case template.ModeFit:
		e.planFit(plan, imgW, imgH, band)
	case template.ModeSquare:
		if e.tpl.Banner.Overlay {
			plan.CanvasW, plan.CanvasH = imgW, imgH
			plan.ImageRect = image.Rect(0, 0, imgW, imgH)
			plan.BandRect = image.Rect(0, imgH-band, imgW, imgH)
			plan.Overlay = true
		} else {
			e.planAppend(plan, imgW, imgH, band)
		}
	default:
		// keep and vertical both append the band below the source.
		e.planAppend(plan, imgW, imgH, band)
	}

	if err := e.fillBand(plan, left, right); err != nil {
		return nil, err
	}
	if err := e.checkOverflow(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (e *Engine) planAppend(plan *Plan, imgW, imgH, band int) {
	plan.CanvasW = imgW
	plan.CanvasH = imgH + band
	plan.ImageRect = image.Rect(0, 0, imgW, imgH)
	plan.BandRect = image.Rect(0, imgH, imgW, imgH+band)
}

// planFit reserves the band at the bottom of a 3:2 canvas and letterboxes
// the source into the remaining area.
func (e *Engine) planFit(plan *Plan, imgW, imgH, band int) {
	canvasW := imgW
	if minW := int(float64(imgH+band) * fitAspect); minW > canvasW {
		canvasW = minW
	}
	canvasH := int(float64(canvasW) / fitAspect)
	availH := canvasH - band

	scaledW, scaledH := imgW, imgH
	if scaledW > canvasW || scaledH > availH {
		scaleW := float64(canvasW) / float64(imgW)
		scaleH := float64(availH) / float64(imgH)
		scale := scaleW
		if scaleH < scale {
			scale = scaleH
		}
		scaledW = max(1, int(float64(imgW)*scale))
		scaledH = max(1, int(float64(imgH)*scale))
	}
	x := (canvasW - scaledW) / 2
	y := (availH - scaledH) / 2

	plan.CanvasW = canvasW
	plan.CanvasH = canvasH
	plan.ImageRect = image.Rect(x, y, x+scaledW, y+scaledH)
	plan.BandRect = image.Rect(0, canvasH-band, canvasW, canvasH)
}

// collectRows gathers the visible non-empty fields into the two banner
// columns: identity on the left, equipment on the right.
func (e *Engine) collectRows(meta metadata.Normalized, name naming.Resolution) (left, right []row) {
	if e.tpl.Shows("bird") && name.Name != "" {
		left = append(left, row{text: name.Name, role: RoleTitle})
	}
	if e.tpl.Shows("time") && meta.CaptureText != "" {
		left = append(left, row{text: meta.CaptureText, role: RoleBody, muted: true})
	}
	location := ""
	if e.tpl.Shows("location") && meta.Location != "" {
		location = meta.Location
	} else if e.tpl.Shows("gps") && meta.GPSText != "" {
		location = meta.GPSText
	}
	if location != "" {
		left = append(left, row{text: location, role: RoleBody, muted: true})
	}

	if e.tpl.Shows("camera") && meta.Camera != "" {
		right = append(right, row{text: meta.Camera, role: RoleBody})
	}
	if e.tpl.Shows("lens") && meta.Lens != "" {
		right = append(right, row{text: meta.Lens, role: RoleBody})
	}
	if e.tpl.Shows("settings") {
		if settings := metadata.FormatSettings(meta, e.showEqFocal); settings != "" {
			right = append(right, row{text: settings, role: RoleBody})
		}
	}

	if len(left) > maxColumnRows {
		left = left[:maxColumnRows]
	}
	if len(right) > maxColumnRows {
		right = right[:maxColumnRows]
	}
	return left, right
}

// bandHeight compacts the band to its content, floored at the template
// minimum. Empty fields consume no vertical space.
func (e *Engine) bandHeight(canvasW int, left, right []row) int {
	padY := e.tpl.Banner.PaddingY
	gap := e.lineGap()

	logoReserved := 0
	if e.tpl.Logo.Value != "" {
		logoReserved = e.faceHeight(RoleSmall) + gap
	}

	leftH := e.rowsHeight(left, gap) + logoReserved
	rightH := e.rowsHeight(right, gap)
	content := leftH
	if rightH > content {
		content = rightH
	}

	band := content + 2*padY
	if band < e.tpl.Banner.MinHeight {
		band = e.tpl.Banner.MinHeight
	}
	return band
}

func (e *Engine) rowsHeight(rows []row, gap int) int {
	total := 0
	for i, r := range rows {
		total += e.faceHeight(r.role)
		if i < len(rows)-1 {
			total += gap
		}
	}
	return total
}

func (e *Engine) lineGap() int {
	gap := e.tpl.Fonts.Body / 6
	if gap < 4 {
		gap = 4
	}
	return gap
}

func (e *Engine) faceHeight(role Role) int {
	m := e.faces.Face(role).Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func (e *Engine) faceAscent(role Role) int {
	return e.faces.Face(role).Metrics().Ascent.Ceil()
}

func (e *Engine) measure(role Role, text string) int {
	return font.MeasureString(e.faces.Face(role), text).Ceil()
}

// fillBand lays the two columns, divider, and logo into the band.
func (e *Engine) fillBand(plan *Plan, left, right []row) error {
	band := plan.BandRect
	bandW := band.Dx()
	bandH := band.Dy()
	padX := e.tpl.Banner.PaddingX
	padY := e.tpl.Banner.PaddingY
	gap := e.lineGap()

	columnGap := padX / 2
	if columnGap < 16 {
		columnGap = 16
	}
	contentLeft := padX
	contentRight := bandW - padX
	if contentRight < contentLeft+40 {
		contentRight = contentLeft + 40
	}
	contentWidth := contentRight - contentLeft
	leftWidth := int(float64(contentWidth)*e.tpl.Banner.LeftRatio) - columnGap/2
	if leftWidth < minColumnWidth {
		leftWidth = minColumnWidth
	}
	rightWidth := contentWidth - leftWidth - columnGap
	if rightWidth < minColumnWidth {
		rightWidth = minColumnWidth
	}
	leftX := contentLeft
	rightX := contentRight - rightWidth
	dividerX := leftX + leftWidth + columnGap/2

	if e.tpl.Divider.Enabled {
		thickness := e.tpl.Divider.Thickness
		if thickness <= 0 {
			thickness = max(1, plan.CanvasW/1200)
		}
		plan.Dividers = append(plan.Dividers, DividerSeg{
			From:      image.Pt(dividerX, band.Min.Y+padY),
			To:        image.Pt(dividerX, band.Max.Y-padY),
			Thickness: thickness,
			Color:     e.tpl.Palette.Divider,
		})
	}

	logoReserved := 0
	if e.tpl.Logo.Value != "" {
		logoReserved = e.faceHeight(RoleSmall) + gap
	}
	leftAvail := bandH - 2*padY - logoReserved
	rightAvail := bandH - 2*padY

	leftLines := e.wrapColumn(left, leftWidth)
	rightLines := e.wrapColumn(right, rightWidth)

	leftContentH := e.linesHeight(leftLines, gap)
	rightContentH := e.linesHeight(rightLines, gap)

	leftY := band.Min.Y + padY + max(0, (leftAvail-leftContentH)/2)
	rightY := band.Min.Y + padY + max(0, (rightAvail-rightContentH)/2)

	e.placeLines(plan, leftLines, leftX, leftY, gap)
	e.placeLines(plan, rightLines, rightX, rightY, gap)

	return e.placeLogo(plan, leftX, leftWidth, padX, padY)
}

type line struct {
	text  string
	role  Role
	muted bool
	width int
}

// wrapColumn turns field rows into drawable lines. The title is a single
// ellipsized line; body rows may wrap once, breaking only on spaces. The
// column never exceeds its row cap.
func (e *Engine) wrapColumn(rows []row, maxWidth int) []line {
	var lines []line
	for _, r := range rows {
		maxLines := 2
		if r.role == RoleTitle {
			maxLines = 1
		}
		remaining := maxColumnRows - len(lines)
		if remaining <= 0 {
			break
		}
		if maxLines > remaining {
			maxLines = remaining
		}
		for _, text := range e.wrapText(r.role, r.text, maxWidth, maxLines) {
			lines = append(lines, line{
				text:  text,
				role:  r.role,
				muted: r.muted,
				width: e.measure(r.role, text),
			})
		}
	}
	return lines
}

// wrapText breaks text on spaces so it fits maxWidth, never mid-token,
// ellipsizing the last permitted line. Text without spaces that cannot
// fit is ellipsized rather than split.
func (e *Engine) wrapText(role Role, text string, maxWidth, maxLines int) []string {
	text = strings.TrimSpace(text)
	if text == "" || maxLines <= 0 {
		return nil
	}
	if e.measure(role, text) <= maxWidth || maxLines == 1 {
		return []string{e.ellipsize(role, text, maxWidth)}
	}

	words := strings.Fields(text)
	var lines []string
	current := ""
	for i := 0; i < len(words); i++ {
		candidate := words[i]
		if current != "" {
			candidate = current + " " + words[i]
		}
		if e.measure(role, candidate) <= maxWidth || current == "" {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = words[i]
		if len(lines) == maxLines-1 {
			rest := strings.Join(words[i:], " ")
			lines = append(lines, e.ellipsize(role, rest, maxWidth))
			return lines
		}
	}
	if current != "" {
		lines = append(lines, e.ellipsize(role, current, maxWidth))
	}
	return lines
}

// ellipsize trims text to maxWidth, appending an ellipsis when it cuts.
func (e *Engine) ellipsize(role Role, text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if e.measure(role, text) <= maxWidth {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	for cut := len(runes); cut >= 0; cut-- {
		candidate := strings.TrimRight(string(runes[:cut]), " ") + ellipsis
		if e.measure(role, candidate) <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func (e *Engine) linesHeight(lines []line, gap int) int {
	total := 0
	for i, l := range lines {
		total += e.faceHeight(l.role)
		if i < len(lines)-1 {
			total += gap
		}
	}
	return total
}

func (e *Engine) placeLines(plan *Plan, lines []line, x, y, gap int) {
	currentY := y
	for _, l := range lines {
		height := e.faceHeight(l.role)
		ascent := e.faceAscent(l.role)
		clr := e.tpl.Palette.Text
		if l.muted {
			clr = e.tpl.Palette.Muted
		}
		plan.Texts = append(plan.Texts, TextRun{
			Text:   l.text,
			Role:   l.role,
			Color:  clr,
			Origin: image.Pt(x, currentY+ascent),
			Bounds: image.Rect(x, currentY, x+l.width, currentY+height),
		})
		currentY += height + gap
	}
}

// placeLogo anchors the logo in the band. A value naming a readable image
// file becomes an image placement scaled to the logo height cap; any
// other value is footer text in the small face.
func (e *Engine) placeLogo(plan *Plan, leftX, leftWidth, padX, padY int) error {
	value := e.tpl.Logo.Value
	if value == "" {
		return nil
	}
	band := plan.BandRect

	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		maxH := e.tpl.Logo.MaxHeight
		if maxH <= 0 || maxH > band.Dy()-2*padY {
			maxH = max(1, band.Dy()-2*padY)
		}
		// Width is resolved at composite time from the decoded logo;
		// reserve a square box and let the compositor preserve aspect.
		rect := anchorRect(band, e.tpl.Logo.Anchor, maxH, maxH, padX, padY)
		plan.Logo = &LogoPlacement{ImagePath: value, Rect: rect}
		return nil
	}

	text := e.ellipsize(RoleSmall, value, leftWidth)
	height := e.faceHeight(RoleSmall)
	width := e.measure(RoleSmall, text)
	rect := image.Rect(leftX, band.Max.Y-padY-height, leftX+width, band.Max.Y-padY)
	plan.Logo = &LogoPlacement{
		Text:  text,
		Role:  RoleSmall,
		Color: e.tpl.Palette.Muted,
		Rect:  rect,
	}
	return nil
}

// anchorRect positions a w by h box inside band at the named anchor,
// clipped to stay fully inside.
func anchorRect(band image.Rectangle, anchor string, w, h, padX, padY int) image.Rectangle {
	if w > band.Dx()-2*padX {
		w = max(1, band.Dx()-2*padX)
	}
	if h > band.Dy()-2*padY {
		h = max(1, band.Dy()-2*padY)
	}
	var x, y int
	switch anchor {
	case "top-left":
		x, y = band.Min.X+padX, band.Min.Y+padY
	case "top-right":
		x, y = band.Max.X-padX-w, band.Min.Y+padY
	case "bottom-left":
		x, y = band.Min.X+padX, band.Max.Y-padY-h
	case "bottom-center":
		x, y = band.Min.X+(band.Dx()-w)/2, band.Max.Y-padY-h
	default:
		// bottom-right
		x, y = band.Max.X-padX-w, band.Max.Y-padY-h
	}
	return image.Rect(x, y, x+w, y+h)
}

// checkOverflow fails the plan when any drawable lies entirely outside
// the canvas. Partial clipping is tolerated; total loss is an error.
func (e *Engine) checkOverflow(plan *Plan) error {
	canvas := image.Rect(0, 0, plan.CanvasW, plan.CanvasH)
	for _, run := range plan.Texts {
		if !run.Bounds.Overlaps(canvas) {
			return fmt.Errorf("%w: text %q", ErrOverflow, run.Text)
		}
	}
	for _, div := range plan.Dividers {
		box := image.Rect(div.From.X, div.From.Y, div.To.X+div.Thickness, div.To.Y)
		if !box.Overlaps(canvas) {
			return fmt.Errorf("%w: divider", ErrOverflow)
		}
	}
	if plan.Logo != nil && !plan.Logo.Rect.Overlaps(canvas) {
		return fmt.Errorf("%w: logo", ErrOverflow)
	}
	return nil
}
