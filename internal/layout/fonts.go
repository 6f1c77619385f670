package layout

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Source is a parsed font file shared across jobs. The parsed font is
// read-only and safe for concurrent face creation; the faces themselves
// are not, so each job builds its own FaceSet.
type Source struct {
	font *opentype.Font
	path string
}

// systemFontCandidates lists CJK-capable fonts by platform. Species names
// are commonly Chinese, so CJK coverage comes before Latin fallbacks.
func systemFontCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Windows\Fonts\msyh.ttc`,
			`C:\Windows\Fonts\simhei.ttf`,
			`C:\Windows\Fonts\simsun.ttc`,
			`C:\Windows\Fonts\arial.ttf`,
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/PingFang.ttc",
			"/System/Library/Fonts/Hiragino Sans GB.ttc",
			"/Library/Fonts/Arial Unicode.ttf",
		}
	}
	return []string{
		"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
}

// LoadSource loads the first usable font: an explicit override path, then
// platform candidates, then the embedded Go Regular face. The embedded
// fallback keeps rendering working everywhere but lacks CJK glyphs.
func LoadSource(override string) (*Source, error) {
	candidates := systemFontCandidates()
	if override != "" {
		candidates = append([]string{override}, candidates...)
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		parsed, err := parseFontData(data)
		if err != nil {
			continue
		}
		return &Source{font: parsed, path: candidate}, nil
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	return &Source{font: parsed, path: ""}, nil
}

// parseFontData handles both single fonts and .ttc collections.
func parseFontData(data []byte) (*opentype.Font, error) {
	collection, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return collection.Font(0)
}

// Path returns the loaded font file, or "" for the embedded fallback.
func (s *Source) Path() string {
	return s.path
}

// Role names the text styles a banner uses.
type Role string

const (
	RoleTitle Role = "title"
	RoleBody  Role = "body"
	RoleSmall Role = "small"
)

// FaceSet holds the sized faces for one render job. Faces are stateful
// and must not be shared between goroutines.
type FaceSet struct {
	Title font.Face
	Body  font.Face
	Small font.Face
}

// NewFaceSet builds faces at the given point sizes.
func (s *Source) NewFaceSet(titleSize, bodySize, smallSize int) (*FaceSet, error) {
	makeFace := func(size int) (font.Face, error) {
		return opentype.NewFace(s.font, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	title, err := makeFace(titleSize)
	if err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}
	body, err := makeFace(bodySize)
	if err != nil {
		return nil, fmt.Errorf("body face: %w", err)
	}
	small, err := makeFace(smallSize)
	if err != nil {
		return nil, fmt.Errorf("small face: %w", err)
	}
	return &FaceSet{Title: title, Body: body, Small: small}, nil
}

// Face returns the face for a role.
func (f *FaceSet) Face(role Role) font.Face {
	switch role {
	case RoleTitle:
		return f.Title
	case RoleSmall:
		return f.Small
	}
	return f.Body
}
