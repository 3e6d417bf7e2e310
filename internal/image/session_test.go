package imagepkg

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func TestSessionSkipsUnchangedInput(t *testing.T) {
	r := testRenderer(t, DefaultStyle())
	var got collector
	s := NewSession(r, got.add)
	data := baseData(t)

	if gen := s.Submit(context.Background(), data, Options{}); gen != 1 {
		t.Fatalf("expected first pass to be generation 1, got %d", gen)
	}
	s.Wait()
	if gen := s.Submit(context.Background(), data, Options{}); gen != 0 {
		t.Fatalf("expected identical input to be skipped, got generation %d", gen)
	}
	s.Wait()
	if n := len(got.all()); n != 1 {
		t.Fatalf("expected one delivered result, got %d", n)
	}
	if s.State() != Rendered {
		t.Fatalf("expected rendered state, got %v", s.State())
	}

	data.Note = "changed"
	if gen := s.Submit(context.Background(), data, Options{}); gen != 2 {
		t.Fatalf("expected a new pass after a change, got %d", gen)
	}
	s.Wait()
	if n := len(got.all()); n != 2 {
		t.Fatalf("expected two delivered results, got %d", n)
	}
}

func TestSessionDropsSupersededPass(t *testing.T) {
	st := DefaultStyle()
	st.IssuePhotoTimeout = 300 * time.Millisecond
	r := testRenderer(t, st)
	var got collector
	s := NewSession(r, got.add)

	var closed atomic.Int32
	slow := baseData(t)
	slow.IssueImage = stalledBlob{closed: &closed}
	fast := baseData(t)
	fast.Note = "newest"

	first := s.Submit(context.Background(), slow, Options{})
	second := s.Submit(context.Background(), fast, Options{})
	if second <= first {
		t.Fatalf("expected increasing generations, got %d then %d", first, second)
	}
	s.Wait()

	results := got.all()
	if len(results) != 1 {
		t.Fatalf("expected only the newest pass to report, got %d results", len(results))
	}
	notes := results[0].Manifest.Find(KindNote)
	if len(notes) != 1 || notes[0].Text != "Note: newest" {
		t.Fatalf("expected the newest pass's result, got notes %+v", notes)
	}
	if closed.Load() != 1 {
		t.Fatalf("expected superseded pass to release its photo, got %d", closed.Load())
	}
	if s.Generation() != second {
		t.Fatalf("expected generation %d, got %d", second, s.Generation())
	}
}

func TestSessionReportsFailure(t *testing.T) {
	r := NewRenderer(DefaultStyle(), nil, nil, WithObserver(panicObserver{}))
	var got collector
	s := NewSession(r, got.add)
	s.Submit(context.Background(), baseData(t), Options{})
	s.Wait()

	results := got.all()
	if len(results) != 1 || results[0].Ok() {
		t.Fatalf("expected one failed result, got %+v", results)
	}
	if s.State() != Failed {
		t.Fatalf("expected failed state, got %v", s.State())
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{Idle: "idle", Drawing: "drawing", Rendered: "rendered", Failed: "failed", State(9): "unknown"} {
		if st.String() != want {
			t.Fatalf("expected %q, got %q", want, st.String())
		}
	}
}
