package recordings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mindcare/internal/logging"
)

// CheckFunc probes once for completion. It returns true when polling should
// stop. Errors are logged and count as a spent attempt.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Token controls one running poll. Stop is idempotent.
type Token struct {
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once
}

// Stop cancels the poll. It does not wait for the poll goroutine to exit.
func (t *Token) Stop() {
	t.stop.Do(t.cancel)
}

// Done is closed when the poll goroutine has exited, whatever the reason.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Poller runs bounded fixed-interval polls, at most one per patient.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu     sync.Mutex
	active map[int64]*Token
}

// NewPoller builds a poller. Non-positive arguments fall back to 3 seconds
// and 40 attempts.
func NewPoller(interval time.Duration, maxAttempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 40
	}
	return &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logging.NewComponentLogger(logger, "poller"),
		active:      make(map[int64]*Token),
	}
}

// Start launches a poll for the patient. When one is already running, the
// existing token is returned and started is false.
func (p *Poller) Start(ctx context.Context, patientID int64, check CheckFunc) (token *Token, started bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.active[patientID]; ok {
		return existing, false
	}

	pollCtx, cancel := context.WithCancel(ctx)
	token = &Token{cancel: cancel, done: make(chan struct{})}
	p.active[patientID] = token

	go p.run(pollCtx, patientID, token, check)
	return token, true
}

// Stop cancels the active poll for a patient, if any.
func (p *Poller) Stop(patientID int64) {
	p.mu.Lock()
	token, ok := p.active[patientID]
	p.mu.Unlock()
	if ok {
		token.Stop()
	}
}

// Active reports whether a poll is running for the patient.
func (p *Poller) Active(patientID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[patientID]
	return ok
}

func (p *Poller) run(ctx context.Context, patientID int64, token *Token, check CheckFunc) {
	defer func() {
		p.mu.Lock()
		delete(p.active, patientID)
		p.mu.Unlock()
		token.Stop()
		close(token.done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		done, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("poll attempt failed",
				logging.Int64("patient_id", patientID),
				logging.Int("attempt", attempt),
				logging.Error(err))
		}
		if done {
			return
		}
		if attempt == p.maxAttempts {
			p.logger.Warn("poll attempts exhausted",
				logging.Int64("patient_id", patientID),
				logging.Int("attempts", p.maxAttempts))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
