package app

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rbright/rehearse/internal/feedback"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/transcript"
)

const noSessionError = "no active rehearse session"

// forward sends req to the running owner. handled is false when no owner
// is listening.
func (r Runner) forward(ctx context.Context, req ipc.Request) (ipc.Response, bool, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, false, err
	}
	return tryForward(ctx, socketPath, req)
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	resp, ok := r.mustForward(ctx, req)
	if !ok {
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) mustForward(ctx context.Context, req ipc.Request) (ipc.Response, bool) {
	resp, handled, err := r.forward(ctx, req)
	if !handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		} else {
			fmt.Fprintf(r.Stderr, "error: %s\n", noSessionError)
		}
		return ipc.Response{}, false
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, false
	}
	return resp, true
}

func (r Runner) commandStatus(ctx context.Context) int {
	resp, handled, err := r.forward(ctx, ipc.Request{Command: "status"})
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)

	var fields map[string]any
	if err := resp.DecodeData(&fields); err != nil {
		fmt.Fprintf(r.Stderr, "error: decode status: %v\n", err)
		return 1
	}
	writeFields(r.Stdout, fields)
	return 0
}

func (r Runner) commandTranscript(ctx context.Context) int {
	resp, ok := r.mustForward(ctx, ipc.Request{Command: "transcript"})
	if !ok {
		return 1
	}
	var entries []transcript.Entry
	if err := resp.DecodeData(&entries); err != nil {
		fmt.Fprintf(r.Stderr, "error: decode transcript: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "transcript is empty")
		return 0
	}
	writeTranscript(r.Stdout, entries)
	return 0
}

func (r Runner) commandFeedback(ctx context.Context) int {
	resp, ok := r.mustForward(ctx, ipc.Request{Command: "feedback"})
	if !ok {
		return 1
	}
	if len(resp.Data) == 0 {
		fmt.Fprintln(r.Stdout, resp.Message)
		return 0
	}

	// Meetings answer with running notes; interviews with one evaluation.
	if resp.Message == "notes" {
		var notes []feedback.LiveNote
		if err := resp.DecodeData(&notes); err != nil {
			fmt.Fprintf(r.Stderr, "error: decode notes: %v\n", err)
			return 1
		}
		writeNotes(r.Stdout, notes)
		return 0
	}

	var result feedback.Result
	if err := resp.DecodeData(&result); err != nil {
		fmt.Fprintf(r.Stderr, "error: decode feedback: %v\n", err)
		return 1
	}
	writeFeedback(r.Stdout, result)
	return 0
}

func writeFields(w io.Writer, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "state" || v == nil || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, fields[k])
	}
}

func writeTranscript(w io.Writer, entries []transcript.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s: %s\n", e.CreatedAt.Local().Format("15:04:05"), e.Speaker, e.Text)
		if e.CorrectionNote != "" {
			fmt.Fprintf(w, "    note: %s\n", e.CorrectionNote)
		}
	}
}

func writeFeedback(w io.Writer, result feedback.Result) {
	if result.Correction != nil {
		fmt.Fprintf(w, "Correction: %s\n", *result.Correction)
	}
	fmt.Fprintf(w, "Polished: %s\n", result.Polished)
	fmt.Fprintf(w, "Feedback: %s\n", result.Narrative)
	if len(result.Suggestions) > 0 {
		fmt.Fprintln(w, "Suggestions:")
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	fmt.Fprintf(w, "Words: %d\n", result.WordCount)
}

func writeNotes(w io.Writer, notes []feedback.LiveNote) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "no grammar notes yet")
		return
	}
	for _, n := range notes {
		fmt.Fprintf(w, "- %q -> %q: %s\n", n.Original, n.Corrected, n.Explanation)
	}
}
