package transcript

import "strings"

// Segment is one recognition result delivered by a recognizer.
type Segment struct {
	Text  string
	Final bool
}

// Assembler accumulates final segments until an utterance is flushed.
// Interim segments only replace the pending preview.
type Assembler struct {
	final   []string
	interim string
}

// Add records seg. Interim text is kept as a preview until the next final.
func (a *Assembler) Add(seg Segment) {
	if !seg.Final {
		a.interim = seg.Text
		return
	}
	a.interim = ""
	a.final = append(a.final, seg.Text)
}

// Preview returns the committed text followed by the current interim text.
func (a *Assembler) Preview() string {
	parts := append(append([]string(nil), a.final...), a.interim)
	return Assemble(parts)
}

// Flush returns the assembled final text and clears the assembler.
func (a *Assembler) Flush() string {
	text := Assemble(a.final)
	a.final = nil
	a.interim = ""
	return text
}

// Assemble joins segments with single spaces and collapses whitespace runs.
func Assemble(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(strings.Join(segments, " ")), " ")
}
