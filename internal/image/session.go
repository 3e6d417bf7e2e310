package imagepkg

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
)

type State int

const (
	Idle State = iota
	Drawing
	Rendered
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Session drives repeated passes for one certificate being edited. A new
// pass starts only when the data or options change, and only the newest
// pass may report: results of superseded passes are dropped.
type Session struct {
	r          *Renderer
	onRendered func(Result)
	log        *zap.Logger

	deliver sync.Mutex

	mu       sync.Mutex
	state    State
	gen      uint64
	hasLast  bool
	lastData certificate.Data
	lastOpts Options
	wg       sync.WaitGroup
}

// NewSession calls onRendered once for every pass that is still current when
// it finishes.
func NewSession(r *Renderer, onRendered func(Result)) *Session {
	if onRendered == nil {
		onRendered = func(Result) {}
	}
	return &Session{r: r, onRendered: onRendered, log: r.log}
}

// Submit starts a pass for data unless it deep-equals the previous
// submission. It returns the generation of the started pass, or 0 when
// nothing changed.
func (s *Session) Submit(ctx context.Context, data certificate.Data, opts Options) uint64 {
	s.mu.Lock()
	if s.hasLast && reflect.DeepEqual(s.lastData, data) && reflect.DeepEqual(s.lastOpts, opts) {
		s.mu.Unlock()
		return 0
	}
	s.hasLast = true
	s.lastData, s.lastOpts = data, opts
	s.gen++
	gen := s.gen
	s.state = Drawing
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		res := s.r.Render(ctx, data, opts)

		// deliver serialises callbacks so an older pass that was still
		// current at check time reports before any newer one.
		s.deliver.Lock()
		defer s.deliver.Unlock()
		s.mu.Lock()
		current := gen == s.gen
		if current {
			if res.Ok() {
				s.state = Rendered
			} else {
				s.state = Failed
			}
		}
		s.mu.Unlock()
		if !current {
			s.log.Debug("discarding superseded render pass", zap.Uint64("generation", gen))
			return
		}
		s.onRendered(res)
	}()
	return gen
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Wait blocks until every started pass has finished.
func (s *Session) Wait() { s.wg.Wait() }
