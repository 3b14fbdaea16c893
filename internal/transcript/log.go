// Package transcript keeps the append-only conversation record of a session.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Speaker attributes an entry to one side of the conversation.
type Speaker string

const (
	SpeakerSubject     Speaker = "subject"
	SpeakerInterviewer Speaker = "interviewer"
)

// Entry is one immutable utterance in the log.
type Entry struct {
	ID             string    `json:"id"`
	Speaker        Speaker   `json:"speaker"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	CorrectionNote string    `json:"correction_note,omitempty"`
}

// Log is an ordered, append-only sequence of entries. Timestamps are
// strictly increasing even when the clock does not advance between appends.
type Log struct {
	now func() time.Time

	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty log. A nil clock uses time.Now.
func NewLog(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{now: now}
}

// Append stamps and stores a new entry. The correction note, when present,
// is fixed at this point and never changes afterwards.
func (l *Log) Append(speaker Speaker, text string, correctionNote string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	createdAt := l.now()
	if n := len(l.entries); n > 0 {
		if last := l.entries[n-1].CreatedAt; !createdAt.After(last) {
			createdAt = last.Add(time.Nanosecond)
		}
	}

	entry := Entry{
		ID:             uuid.NewString(),
		Speaker:        speaker,
		Text:           text,
		CreatedAt:      createdAt,
		CorrectionNote: correctionNote,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a snapshot of the log in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset discards every entry. Only a session restart does this.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
