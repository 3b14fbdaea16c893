package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []PlaybackEvent
}

func (r *eventRecorder) record(ev PlaybackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []PlaybackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PlaybackEvent(nil), r.events...)
}

func (r *eventRecorder) waitFor(t *testing.T, n int) []PlaybackEvent {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func TestCommandSynthesizerCompletesUtterance(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"true", "{text}"}, nil, nil)
	rec := &eventRecorder{}
	synth.Notify(rec.record)

	require.True(t, synth.Supported())
	require.NoError(t, synth.Speak(context.Background(), Utterance{ID: "greeting", Text: "Hello!"}, Options{Rate: 0.9}))

	events := rec.waitFor(t, 2)
	require.Equal(t, PlaybackEvent{UtteranceID: "greeting", Kind: PlaybackStarted}, events[0])
	require.Equal(t, PlaybackEvent{UtteranceID: "greeting", Kind: PlaybackEnded}, events[1])
}

func TestCommandSynthesizerReportsFailure(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"false", "{text}"}, nil, nil)
	rec := &eventRecorder{}
	synth.Notify(rec.record)

	require.NoError(t, synth.Speak(context.Background(), Utterance{ID: "q1", Text: "Why?"}, Options{}))
	events := rec.waitFor(t, 2)
	require.Equal(t, PlaybackFailed, events[1].Kind)
	require.Error(t, events[1].Err)
	require.NotErrorIs(t, events[1].Err, ErrInterrupted)
}

func TestCommandSynthesizerStopInterrupts(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"sh", "-c", "sleep 5", "{text}"}, nil, nil)
	rec := &eventRecorder{}
	synth.Notify(rec.record)

	require.NoError(t, synth.Speak(context.Background(), Utterance{ID: "long", Text: "a long answer"}, Options{}))
	require.NoError(t, synth.Pause())
	require.NoError(t, synth.Resume())
	require.NoError(t, synth.Pause())

	start := time.Now()
	synth.Stop()
	require.Less(t, time.Since(start), 2*time.Second)

	events := rec.waitFor(t, 2)
	require.Equal(t, PlaybackFailed, events[1].Kind)
	require.ErrorIs(t, events[1].Err, ErrInterrupted)

	synth.Stop()
	require.NoError(t, synth.Pause())
}

func TestCommandSynthesizerSpeakCancelsCurrent(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"sh", "-c", "sleep 5", "{text}"}, nil, nil)
	rec := &eventRecorder{}
	synth.Notify(rec.record)

	require.NoError(t, synth.Speak(context.Background(), Utterance{ID: "first", Text: "one"}, Options{}))
	require.NoError(t, synth.Speak(context.Background(), Utterance{ID: "second", Text: "two"}, Options{}))

	events := rec.waitFor(t, 3)
	var firstFailed bool
	for _, ev := range events {
		if ev.UtteranceID == "first" && ev.Kind == PlaybackFailed {
			firstFailed = errors.Is(ev.Err, ErrInterrupted)
		}
	}
	require.True(t, firstFailed)
	synth.Stop()
}

func TestCommandSynthesizerUnsupportedBinary(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"definitely-not-a-synth-binary"}, nil, nil)
	require.False(t, synth.Supported())
	require.ErrorIs(t, synth.Speak(context.Background(), Utterance{Text: "hi"}, Options{}), ErrUnsupported)

	require.False(t, NewCommandSynthesizer(nil, nil, nil).Supported())
}

func TestCommandSynthesizerVoicesCached(t *testing.T) {
	synth := NewCommandSynthesizer([]string{"true"}, []string{"printf", "Pty Language Age/Gender VoiceName File\\n 5 en-gb --/M English gmw/en\\n"}, nil)

	voices, err := synth.Voices(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Voice{{Language: "en-gb", Name: "English"}}, voices)

	synth.voicesArgv = []string{"false"}
	voices, err = synth.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)

	_, err = NewCommandSynthesizer([]string{"true"}, nil, nil).Voices(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestExpandSynthArgv(t *testing.T) {
	t.Parallel()

	argv, stdin := expandSynthArgv(
		[]string{"espeak-ng", "-s", "{rate}", "-p", "{pitch}", "-a", "{volume}", "-v", "{voice}", "{text}"},
		"Tell me about {rate}",
		Options{Rate: 0.9, Pitch: 1, Volume: 1},
		"en-us",
	)
	require.False(t, stdin)
	require.Equal(t, []string{"espeak-ng", "-s", "158", "-p", "50", "-a", "100", "-v", "en-us", "Tell me about {rate}"}, argv)

	argv, stdin = expandSynthArgv([]string{"festival", "--tts"}, "hi", Options{}, "")
	require.True(t, stdin)
	require.Equal(t, []string{"festival", "--tts"}, argv)
}

func TestScaleClamps(t *testing.T) {
	t.Parallel()

	require.Equal(t, 175, scale(0, baseWordsPerMinute, 80, 450))
	require.Equal(t, 450, scale(10, baseWordsPerMinute, 80, 450))
	require.Equal(t, 99, scale(2, basePitch, 0, 99))
}

func TestParseVoiceListAndSelectVoice(t *testing.T) {
	t.Parallel()

	output := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  de              --/M      German             gmw/de
 2  en-gb           --/M      English_(Great_Britain) gmw/en
 5  en-us           --/M      English_(America)  gmw/en-US
bad line
`
	voices := ParseVoiceList(output)
	require.Len(t, voices, 4)
	require.Equal(t, Voice{Language: "af", Name: "Afrikaans"}, voices[0])

	require.Equal(t, "en-us", SelectVoice(voices, "EN-US"))
	require.Equal(t, "de", SelectVoice(voices, "German"))
	require.Equal(t, "en-gb", SelectVoice(voices, "klingon"))
	require.Equal(t, "klingon", SelectVoice(voices[:2], "klingon"))
	require.Equal(t, "", SelectVoice(nil, " "))
}

func TestUnsupportedSynthesizer(t *testing.T) {
	t.Parallel()

	var synth Synthesizer = Unsupported{}
	require.False(t, synth.Supported())
	require.ErrorIs(t, synth.Speak(context.Background(), Utterance{Text: "x"}, Options{}), ErrUnsupported)
	require.ErrorIs(t, synth.Pause(), ErrUnsupported)
	_, err := synth.Voices(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestPushRecognizerSingleUtterance(t *testing.T) {
	t.Parallel()

	rec := NewPushRecognizer()
	require.ErrorIs(t, rec.Push(Result{Text: "early", Final: true}), ErrNotListening)

	var got []Result
	require.NoError(t, rec.StartListening(context.Background(), false, func(r Result) { got = append(got, r) }))
	require.True(t, rec.Listening())

	require.NoError(t, rec.Push(Result{Text: "i worked"}))
	require.NoError(t, rec.Push(Result{Text: "   ", Final: true}))
	require.True(t, rec.Listening())
	require.NoError(t, rec.Push(Result{Text: "i worked on payments", Final: true}))
	require.False(t, rec.Listening())
	require.ErrorIs(t, rec.Push(Result{Text: "late", Final: true}), ErrNotListening)

	require.Equal(t, []Result{{Text: "i worked"}, {Text: "i worked on payments", Final: true}}, got)
}

func TestPushRecognizerContinuousAndRestart(t *testing.T) {
	t.Parallel()

	rec := NewPushRecognizer()
	var count int
	require.NoError(t, rec.StartListening(context.Background(), true, func(Result) { count++ }))
	require.NoError(t, rec.Push(Result{Text: "one", Final: true}))
	require.NoError(t, rec.Push(Result{Text: "two", Final: true}))
	require.True(t, rec.Listening())

	rec.StopListening()
	require.False(t, rec.Listening())
	require.ErrorIs(t, rec.Push(Result{Text: "three", Final: true}), ErrNotListening)

	require.NoError(t, rec.StartListening(context.Background(), true, func(Result) { count++ }))
	require.NoError(t, rec.Push(Result{Text: "four", Final: true}))
	require.Equal(t, 3, count)
}
