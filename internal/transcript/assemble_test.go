package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAssembleNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{" hello", "world.", "\nfrom", "the  interview"})
	require.Equal(t, "hello world. from the interview", got)
}

func TestAssembleEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Assemble(nil))
	require.Empty(t, Assemble([]string{"  ", "\n\t"}))
}

func TestAssemblerInterimPreviewAndFlush(t *testing.T) {
	t.Parallel()

	var a Assembler
	a.Add(Segment{Text: "i worked"})
	require.Equal(t, "i worked", a.Preview())

	a.Add(Segment{Text: "i worked on", Final: true})
	a.Add(Segment{Text: "payments"})
	require.Equal(t, "i worked on payments", a.Preview())

	a.Add(Segment{Text: " payments infra ", Final: true})
	require.Equal(t, "i worked on payments infra", a.Flush())
	require.Empty(t, a.Flush())
	require.Empty(t, a.Preview())
}

func TestLogAppendAssignsIDsAndOrder(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC)
	log := NewLog(func() time.Time { return fixed })

	first := log.Append(SpeakerInterviewer, "Hello!", "")
	second := log.Append(SpeakerSubject, "hi i am ready", "Hi I am ready")
	third := log.Append(SpeakerInterviewer, "Great.", "")

	require.NotEqual(t, first.ID, second.ID)
	require.NotEqual(t, second.ID, third.ID)
	require.True(t, second.CreatedAt.After(first.CreatedAt))
	require.True(t, third.CreatedAt.After(second.CreatedAt))
	require.Equal(t, "Hi I am ready", second.CorrectionNote)

	entries := log.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, []Speaker{SpeakerInterviewer, SpeakerSubject, SpeakerInterviewer},
		[]Speaker{entries[0].Speaker, entries[1].Speaker, entries[2].Speaker})
}

func TestLogEntriesSnapshotIsIsolated(t *testing.T) {
	t.Parallel()

	log := NewLog(nil)
	log.Append(SpeakerSubject, "original", "")

	snapshot := log.Entries()
	snapshot[0].Text = "mutated"
	require.Equal(t, "original", log.Entries()[0].Text)
}
