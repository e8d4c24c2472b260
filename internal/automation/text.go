package automation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Text sources reported in AutomationResult.TextSource.
const (
	SourceText     = "text_pattern"
	SourceValue    = "value"
	SourceName     = "name"
	SourceChildren = "children"
	SourceOCR      = "ocr"
	SourceNone     = "none"
)

// TextOptions configures ReadText.
type TextOptions struct {
	// IncludeChildren aggregates descendant text after the element's own.
	IncludeChildren bool   `yaml:"include_children,omitempty" json:"include_children,omitempty"`
	MaxDepth        int    `yaml:"max_depth,omitempty"        json:"max_depth,omitempty"`
	MaxBytes        int    `yaml:"max_bytes,omitempty"        json:"max_bytes,omitempty"`
	AllowOCR        bool   `yaml:"allow_ocr,omitempty"        json:"allow_ocr,omitempty"`
	Language        string `yaml:"language,omitempty"         json:"language,omitempty"`
}

// ownText reads one element's text: text pattern, then value, then name.
func ownText(el uia.Element, p uia.Properties) (string, string) {
	if p.Capabilities.Has(model.CapText) {
		if t, err := el.Text(); err == nil && strings.TrimSpace(t) != "" {
			return t, SourceText
		}
	}
	if p.Capabilities.Has(model.CapValue) {
		if v, err := el.Value(); err == nil && strings.TrimSpace(v) != "" {
			return v, SourceValue
		}
	}
	if strings.TrimSpace(p.Name) != "" {
		return p.Name, SourceName
	}
	return "", SourceNone
}

// textBuf joins de-duplicated pieces with newlines up to a byte cap.
type textBuf struct {
	b         strings.Builder
	seen      map[string]bool
	limit     int
	truncated bool
}

func (t *textBuf) add(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || t.seen[s] {
		return !t.truncated
	}
	t.seen[s] = true
	if t.b.Len() > 0 {
		s = "\n" + s
	}
	if room := t.limit - t.b.Len(); len(s) > room {
		cut := max(room, 0)
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		t.b.WriteString(s[:cut])
		t.truncated = true
		return false
	}
	t.b.WriteString(s)
	return true
}

type extracted struct {
	info      model.ElementInfo
	text      string
	source    string
	truncated bool
}

func (s *Service) readText(ctx context.Context, t Target, opts TextOptions, tr *trace) (extracted, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.opts.TextMaxDepth
	}
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = s.opts.TextMaxBytes
	}
	info, err := s.locate(ctx, t, tr)
	if err != nil {
		return extracted{}, err
	}
	id, err := model.ParseElementID(info.ID)
	if err != nil {
		return extracted{}, err
	}
	out, err := call(ctx, s, "read text", func(a *uia.Arena) (extracted, error) {
		el, path, err := s.resolveNative(a, id, tr)
		if err != nil {
			return extracted{}, err
		}
		p, err := el.Snapshot()
		if err != nil {
			return extracted{}, err
		}
		x := extracted{info: describe(el, p, id.Window, path, s.topology())}
		own, src := ownText(el, p)
		buf := &textBuf{seen: map[string]bool{}, limit: limit}
		buf.add(own)
		x.source = src
		if opts.IncludeChildren {
			before := buf.b.Len()
			err := walk(a, el, path, maxDepth, tr, func(n node) bool {
				txt, _ := ownText(n.el, n.props)
				return buf.add(txt)
			})
			if err != nil {
				return extracted{}, err
			}
			if buf.b.Len() > before {
				x.source = SourceChildren
				if own != "" {
					x.source = src + "+" + SourceChildren
				}
			}
		}
		x.text, x.truncated = buf.b.String(), buf.truncated
		return x, nil
	})
	if err != nil {
		return out, err
	}
	if strings.TrimSpace(out.text) == "" {
		out.text, out.source = "", SourceNone
		if opts.AllowOCR && s.prov.OCR != nil && !out.info.Bounds.Empty() {
			r, err := s.prov.OCR.Recognize(ctx, out.info.Bounds, opts.Language)
			if err != nil {
				return out, model.Wrap(model.KindInternalFault, err, "ocr")
			}
			if txt := strings.TrimSpace(r.Text()); txt != "" {
				out.text, out.source = txt, SourceOCR
			}
		}
	}
	return out, nil
}

// ReadText extracts the target's text. An element with no text is a success
// with TextSource "none": the caller may retry with AllowOCR.
func (s *Service) ReadText(ctx context.Context, t Target, opts TextOptions) *model.AutomationResult {
	tr := s.begin("read_text")
	x, err := s.readText(ctx, t, opts, tr)
	res := s.withElement(s.finish(tr, err), x.info)
	if err == nil {
		res.Text, res.TextSource = x.text, x.source
		switch {
		case x.truncated:
			res.Message = "text truncated"
		case x.source == SourceNone:
			res.Message = "element has no accessible text; try OCR"
		}
	}
	return res
}
