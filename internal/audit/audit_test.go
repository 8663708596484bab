package audit_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/pkg/lifecycle"
)

// captureHandler collects log records so tests can assert on emission.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) messages(msg string) []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Message == msg {
			out = append(out, r)
		}
	}
	return out
}

func TestRecordedEventsDrainOnShutdown(t *testing.T) {
	capture := &captureHandler{}
	sys := audit.New(8, slog.New(capture))

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	sys.Record(context.Background(), audit.Event{
		Action:   "document.upload",
		OwnerID:  "owner-1",
		SlotType: "portrait",
		NewKey:   "owner-1/portrait/1-ab-photo.jpg",
	})
	sys.Record(context.Background(), audit.Event{
		Action:   "document.delete",
		OwnerID:  "owner-1",
		SlotType: "portrait",
		OldKey:   "owner-1/portrait/1-ab-photo.jpg",
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	emitted := capture.messages("audit")
	if len(emitted) != 2 {
		t.Fatalf("emitted = %d audit records, want 2", len(emitted))
	}
}

func TestRecordStampsTime(t *testing.T) {
	capture := &captureHandler{}
	sys := audit.New(8, slog.New(capture))

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	sys.Record(context.Background(), audit.Event{Action: "document.upload", OwnerID: "owner-1"})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	emitted := capture.messages("audit")
	if len(emitted) != 1 {
		t.Fatalf("emitted = %d, want 1", len(emitted))
	}

	var at time.Time
	emitted[0].Attrs(func(a slog.Attr) bool {
		if a.Key == "at" {
			at = a.Value.Time()
		}
		return true
	})
	if at.IsZero() {
		t.Error("emitted event has zero timestamp")
	}
}

func TestRecordSafeDuringShutdown(t *testing.T) {
	capture := &captureHandler{}
	sys := audit.New(4, slog.New(capture))

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					sys.Record(context.Background(), audit.Event{Action: "document.upload", OwnerID: "owner-1"})
				}
			}
		}()
	}

	// shutdown races the recorders; Record must drop, never panic
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	close(stop)
	wg.Wait()
}

func TestRecordNeverBlocksWhenFull(t *testing.T) {
	capture := &captureHandler{}
	// no consumer started: the buffer fills and overflow is dropped
	sys := audit.New(1, slog.New(capture))

	done := make(chan struct{})
	go func() {
		defer close(done)
		sys.Record(context.Background(), audit.Event{Action: "document.upload", OwnerID: "owner-1"})
		sys.Record(context.Background(), audit.Event{Action: "document.upload", OwnerID: "owner-1"})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	if dropped := capture.messages("audit buffer full, event dropped"); len(dropped) != 1 {
		t.Errorf("dropped warnings = %d, want 1", len(dropped))
	}
}
