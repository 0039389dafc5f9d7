package recordings

import (
	"fmt"
	"strings"

	"mindcare/internal/transcriber"
)

// ExtractProcessedText renders diarized segments as readable paragraphs.
// Consecutive segments from the same speaker merge into one paragraph; a
// speaker change starts a new one. Every paragraph is prefixed with its time
// range, in seconds with one decimal.
func ExtractProcessedText(segments []transcriber.Segment) string {
	var paragraphs []string
	var current *paragraph

	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		if current != nil && current.speaker == segment.Speaker {
			current.text += " " + text
			current.end = segment.End
			continue
		}
		if current != nil {
			paragraphs = append(paragraphs, current.render())
		}
		current = &paragraph{
			speaker: segment.Speaker,
			start:   segment.Start,
			end:     segment.End,
			text:    text,
		}
	}
	if current != nil {
		paragraphs = append(paragraphs, current.render())
	}
	return strings.Join(paragraphs, "\n")
}

type paragraph struct {
	speaker string
	start   float64
	end     float64
	text    string
}

func (p *paragraph) render() string {
	line := fmt.Sprintf("[%.1fs - %.1fs]", p.start, p.end)
	if p.speaker != "" {
		line += " " + p.speaker + ":"
	}
	return line + " " + p.text
}
