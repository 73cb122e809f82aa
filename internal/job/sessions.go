package job

import (
	"log/slog"
	"time"
)

const DefaultPruneInterval = 10 * time.Minute

// Pruner drops conversations idle for longer than maxIdle and reports how
// many were removed.
type Pruner interface {
	Prune(maxIdle time.Duration) int
}

// SessionPruner periodically evicts idle in-process conversations. Redis
// backed memory expires on its own and needs no pruner.
type SessionPruner struct {
	memory      Pruner
	interval    time.Duration
	maxIdle     time.Duration
	logger      *slog.Logger
	stopCh      chan struct{}
	runningLock chan struct{} // only one prune pass at a time
}

func NewSessionPruner(memory Pruner, interval, maxIdle time.Duration, logger *slog.Logger) *SessionPruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionPruner{
		memory:      memory,
		interval:    interval,
		maxIdle:     maxIdle,
		logger:      logger.With("component", "session_pruner"),
		stopCh:      make(chan struct{}),
		runningLock: make(chan struct{}, 1),
	}
}

// Start blocks until Stop is called.
func (p *SessionPruner) Start() {
	p.logger.Info("starting session pruner", slog.Duration("interval", p.interval), slog.Duration("max_idle", p.maxIdle))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go p.RunOnce()
		case <-p.stopCh:
			p.logger.Info("session pruner stopped")
			return
		}
	}
}

func (p *SessionPruner) Stop() {
	close(p.stopCh)
}

// RunOnce prunes once and returns the number of evicted sessions, or -1 when
// another pass is still running.
func (p *SessionPruner) RunOnce() int {
	select {
	case p.runningLock <- struct{}{}:
		defer func() { <-p.runningLock }()
	default:
		p.logger.Debug("session prune already running, skipping")
		return -1
	}

	n := p.memory.Prune(p.maxIdle)
	if n > 0 {
		p.logger.Info("pruned idle sessions", slog.Int("count", n))
	}
	return n
}
