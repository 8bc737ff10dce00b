// Package license reads the bundled license text off the calling goroutine.
package license

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/maloquacious/tablekit/internal/logger"
)

//go:embed license.txt
var bundled []byte

// Bundled returns the license text compiled into the binary.
func Bundled() string {
	return string(bundled)
}

// Opener opens the text resource to read.
type Opener func() (io.ReadCloser, error)

// BundledOpener opens the embedded license.
func BundledOpener() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(bundled)), nil
}

// Outcome is the single resolution of a Task.
// OK is set only when the whole resource was read. A cancelled outcome carries
// the text read so far, possibly empty.
type Outcome struct {
	Text      string
	OK        bool
	Cancelled bool
}

// Listener is told about the outcome once.
// Implementations must be comparable so ClearListener can match them, and
// must not call SetListener or ClearListener from ReadLicenseComplete.
type Listener interface {
	ReadLicenseComplete(Outcome)
}

// Task is a one-shot background read. It resolves exactly once, either when
// reading finishes or when it is cancelled.
type Task struct {
	ID string

	open Opener
	log  logger.Logger

	// delivery is held while the listener runs, so ClearListener
	// waits out a callback already in progress.
	delivery sync.Mutex

	mu       sync.Mutex
	listener Listener
	started  bool
	cancel   context.CancelFunc
	partial  strings.Builder
	outcome  Outcome
	resolved bool
	done     chan struct{}
}

// NewTask creates a task over open. A nil open reads the bundled license.
func NewTask(open Opener, log logger.Logger) *Task {
	if open == nil {
		open = BundledOpener
	}
	if log == nil {
		log = logger.Discard
	}
	return &Task{
		ID:     uuid.NewString(),
		open:   open,
		log:    log,
		cancel: func() {},
		done:   make(chan struct{}),
	}
}

// Start begins reading on a new goroutine. Calling Start twice, or after
// Cancel, does nothing. Cancelling ctx cancels the task.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started || t.resolved {
		t.mu.Unlock()
		return
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	go t.run(ctx)
}

func (t *Task) run(ctx context.Context) {
	defer t.cancel()

	rc, err := t.open()
	if err != nil {
		logger.Stack(t.log, "license: open failed", err, "task", t.ID)
		t.resolve(Outcome{Cancelled: ctx.Err() != nil})
		return
	}
	defer rc.Close()
	// unblock a pending read when cancelled
	stop := context.AfterFunc(ctx, func() { rc.Close() })
	defer stop()

	r := bufio.NewReader(rc)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			t.mu.Lock()
			t.partial.WriteString(strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
			t.partial.WriteByte('\n')
			t.mu.Unlock()
		}
		if ctx.Err() != nil {
			t.resolve(t.cancelledOutcome())
			return
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Stack(t.log, "license: read failed", err, "task", t.ID)
			t.resolve(Outcome{})
			return
		}
	}

	t.mu.Lock()
	text := t.partial.String()
	t.mu.Unlock()
	t.log.Debug("license: read complete", "task", t.ID, "bytes", len(text))
	t.resolve(Outcome{Text: text, OK: true})
}

func (t *Task) cancelledOutcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Outcome{Text: t.partial.String(), Cancelled: true}
}

// Cancel resolves the task as cancelled, with whatever text had been read.
// It has no effect once the task is resolved.
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	cancel()
	t.resolve(t.cancelledOutcome())
}

// resolve records o and notifies the listener, only the first time it is called.
func (t *Task) resolve(o Outcome) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.resolved = true
	t.outcome = o
	l := t.listener
	close(t.done)
	t.mu.Unlock()

	// a ClearListener that won the race leaves nothing to call
	t.delivery.Lock()
	defer t.delivery.Unlock()
	t.mu.Lock()
	if t.listener != l {
		l = nil
	}
	t.mu.Unlock()
	if l != nil {
		l.ReadLicenseComplete(o)
	}
}

// Done is closed once the task resolves.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome and whether the task has resolved yet.
func (t *Task) Result() (Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome, t.resolved
}

// Wait blocks until the task resolves or ctx is done.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		o, _ := t.Result()
		return o, nil
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("waiting for license task %s: %w", t.ID, ctx.Err())
	}
}

// SetListener registers l for the completion callback, replacing any previous one.
// A listener registered after resolution is not called; use Result.
func (t *Task) SetListener(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = l
}

// ClearListener removes l if it is the registered listener. If a callback is
// running it returns only after the callback does; l is never called afterwards.
func (t *Task) ClearListener(l Listener) {
	t.delivery.Lock()
	defer t.delivery.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == l {
		t.listener = nil
	}
}
