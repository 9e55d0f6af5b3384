package sandbox

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/infrastructure/logging"
)

// Session serializes executions for one editor: at most one live execution,
// last-request-wins. Starting a run while another is outstanding cancels
// the outstanding one; the superseded run surfaces ErrCancelled.
type Session struct {
	id   string
	exec *Executor
	log  *logging.Logger

	mu      sync.Mutex
	current *runToken
}

type runToken struct {
	cancel context.CancelFunc
}

func NewSession(exec *Executor, log *logging.Logger) *Session {
	if log == nil {
		log = logging.NewNop()
	}
	return &Session{
		id:   uuid.NewString(),
		exec: exec,
		log:  log.Named("session"),
	}
}

func (s *Session) ID() string { return s.id }

// Run executes code, first cancelling any outstanding execution.
func (s *Session) Run(ctx context.Context, code string) ([]Capture, error) {
	runCtx, cancel := context.WithCancel(ctx)
	tok := &runToken{cancel: cancel}

	s.mu.Lock()
	if s.current != nil {
		s.log.Debug("superseding outstanding execution", zap.String("session", s.id))
		s.current.cancel()
	}
	s.current = tok
	s.mu.Unlock()

	captures, err := s.exec.Execute(runCtx, code)

	s.mu.Lock()
	if s.current == tok {
		s.current = nil
	}
	s.mu.Unlock()
	cancel()

	return captures, err
}

// Cancel stops the outstanding execution, if any. Idempotent: cancelling
// twice, or after natural completion, is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
		s.current = nil
	}
}
