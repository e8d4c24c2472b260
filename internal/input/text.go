package input

import (
	"context"
	"strings"
	"unicode/utf16"

	"github.com/mj1618/desktop-intent/internal/model"
)

var (
	enterKey = Key{Name: "enter", Code: vkReturn}
	tabKey   = Key{Name: "tab", Code: vkTab}
)

// textChunk is one SendInput batch. ends[i] is the number of events that
// complete the i-th character of the chunk.
type textChunk struct {
	events []Event
	ends   []int
}

// encodeText turns text into batches of at most size UTF-16 code units.
// "\r\n" and lone "\r" become a single Enter, "\t" becomes Tab, everything
// else is sent as Unicode code units. A surrogate pair never straddles two
// batches.
func encodeText(text string, size int) []textChunk {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var chunks []textChunk
	var cur textChunk
	units := 0
	for _, r := range text {
		var evs []Event
		w := 1
		switch r {
		case '\n':
			evs = []Event{keyDown(enterKey), keyUp(enterKey)}
		case '\t':
			evs = []Event{keyDown(tabKey), keyUp(tabKey)}
		default:
			u := utf16.Encode([]rune{r})
			w = len(u)
			for _, unit := range u {
				pair := unicodeEvents(unit)
				evs = append(evs, pair[0], pair[1])
			}
		}
		if units+w > size && len(cur.ends) > 0 {
			chunks = append(chunks, cur)
			cur = textChunk{}
			units = 0
		}
		cur.events = append(cur.events, evs...)
		cur.ends = append(cur.ends, len(cur.events))
		units += w
	}
	if len(cur.ends) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// completed counts the characters of c whose events were all accepted.
func (c textChunk) completed(accepted int) int {
	n := 0
	for _, end := range c.ends {
		if end > accepted {
			break
		}
		n++
	}
	return n
}

// TypeText types text layout-independently and returns the number of
// characters delivered. On failure the error is a *model.PartialError whose
// Completed count says how far typing got; nothing is rolled back.
func (s *Synthesizer) TypeText(ctx context.Context, text string) (int, error) {
	chunks := encodeText(text, s.chunkSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	sent := 0
	for i, c := range chunks {
		if i > 0 {
			if err := s.sleep(ctx, s.chunkDelay); err != nil {
				return sent, &model.PartialError{Completed: sent, Err: cancelled(err, "typing")}
			}
		} else if err := ctx.Err(); err != nil {
			return 0, &model.PartialError{Err: cancelled(err, "typing")}
		}
		n, err := s.send(ctx, c.events)
		sent += c.completed(n)
		if err != nil {
			// A key that went down without its matching up is released.
			if n > 0 && n < len(c.events) && c.events[n].IsKeyUp() {
				_, _ = s.send(context.Background(), c.events[n:n+1])
			}
			s.log.Warn().Err(err).Int("sent", sent).Msg("typing interrupted")
			return sent, &model.PartialError{Completed: sent, Err: err}
		}
	}
	s.log.Debug().Int("chars", sent).Int("chunks", len(chunks)).Msg("typed text")
	return sent, nil
}
