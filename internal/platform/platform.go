package platform

import (
	"context"

	"github.com/mj1618/desktop-intent/internal/model"
)

// WindowDirectory resolves top-level windows by handle, title or process.
type WindowDirectory interface {
	// Resolve returns exactly one window for spec. Zero matches yield
	// WindowNotFound; several title matches yield MultipleMatches.
	Resolve(ctx context.Context, spec WindowSpec) (model.WindowInfo, error)

	// List returns visible top-level windows, optionally filtered.
	List(ctx context.Context, opts ListOptions) ([]model.WindowInfo, error)
}

// EnvironmentProbe reports conditions under which synthetic input and
// automation must not be attempted.
type EnvironmentProbe interface {
	// SecureDesktopActive reports whether a secure desktop (UAC prompt, lock
	// screen) currently owns input.
	SecureDesktopActive() (bool, error)

	// ProcessElevated reports whether this process runs elevated.
	ProcessElevated() (bool, error)
}

// OCR recognizes text in a screen rectangle. No recognizer is registered by
// default; the automation service calls it only when the caller opts in.
type OCR interface {
	Recognize(ctx context.Context, rect model.Rect, lang string) (OCRResult, error)
}

// OCRResult is the recognizer output.
type OCRResult struct {
	Lines []OCRLine `yaml:"lines" json:"lines"`
}

// OCRLine is one recognized line of text.
type OCRLine struct {
	Text   string     `yaml:"text"   json:"text"`
	Bounds model.Rect `yaml:"bounds" json:"bounds"`
	Words  []OCRWord  `yaml:"words"  json:"words"`
}

// OCRWord is one recognized word with confidence in 0..1.
type OCRWord struct {
	Text       string     `yaml:"text"       json:"text"`
	Bounds     model.Rect `yaml:"bounds"     json:"bounds"`
	Confidence float64    `yaml:"confidence" json:"confidence"`
}

// Text joins the recognized lines with newlines.
func (r OCRResult) Text() string {
	out := ""
	for i, l := range r.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l.Text
	}
	return out
}
