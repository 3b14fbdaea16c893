package speech

import (
	"context"
	"strings"
	"sync"
)

// PushRecognizer is fed recognized text by an external process. Results
// pushed while not listening are rejected with ErrNotListening.
type PushRecognizer struct {
	mu         sync.Mutex
	listening  bool
	continuous bool
	onResult   func(Result)
}

func NewPushRecognizer() *PushRecognizer {
	return &PushRecognizer{}
}

func (*PushRecognizer) Supported() bool { return true }

// StartListening begins delivering results to onResult. Starting while
// already listening replaces the callback and mode.
func (r *PushRecognizer) StartListening(_ context.Context, continuous bool, onResult func(Result)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = true
	r.continuous = continuous
	r.onResult = onResult
	return nil
}

// StopListening ends delivery. The recognizer can be started again.
func (r *PushRecognizer) StopListening() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = false
	r.onResult = nil
}

func (r *PushRecognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Push delivers one result. Blank results are ignored. In single-utterance
// mode the first final result stops listening before it is delivered.
func (r *PushRecognizer) Push(res Result) error {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return ErrNotListening
	}
	if strings.TrimSpace(res.Text) == "" {
		r.mu.Unlock()
		return nil
	}
	fn := r.onResult
	if res.Final && !r.continuous {
		r.listening = false
		r.onResult = nil
	}
	r.mu.Unlock()

	if fn != nil {
		fn(res)
	}
	return nil
}
