package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"
	"hazardlens/pkg/utils"

	"go.uber.org/zap"
)

// sessionService is the orchestrator: it owns at most one live stream session
// and replaces it with a teardown-before-replace discipline. The active field
// is single-writer; a superseded session is fully stopped (transport closed,
// timers cancelled, run loop drained) before the next session starts
// connecting, so two sessions' messages can never interleave into shared
// state.
type sessionService struct {
	factory ports.TransportFactory
	alerts  ports.AlertService
	metrics ports.Metrics
	logger  *zap.SugaredLogger

	reconnectDelay time.Duration
	fpsInterval    time.Duration

	mu     sync.Mutex
	active *streamSession
}

func NewSessionService(
	factory ports.TransportFactory,
	alerts ports.AlertService,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	reconnectDelay time.Duration,
	fpsInterval time.Duration,
) ports.SessionService {
	return &sessionService{
		factory:        factory,
		alerts:         alerts,
		metrics:        metrics,
		logger:         logger,
		reconnectDelay: reconnectDelay,
		fpsInterval:    fpsInterval,
	}
}

func (s *sessionService) Start(ctx context.Context, kind domain.TransportKind, jobID domain.JobID) (domain.SessionID, error) {
	transport, err := s.factory(kind, jobID)
	if err != nil {
		return "", fmt.Errorf("failed to build %s transport: %w", kind, err)
	}

	s.mu.Lock()
	prev := s.active
	s.active = nil
	s.mu.Unlock()

	if prev != nil {
		prev.teardown()
		s.logger.Infow("superseded session torn down", "session_id", prev.id)
	}

	// Fresh session, fresh alert log: replayed history must not cue.
	s.alerts.Reset()

	sess := newStreamSession(transport, jobID, s.alerts, s.metrics, s.logger, s.reconnectDelay, s.fpsInterval)

	runCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel

	s.mu.Lock()
	s.active = sess
	s.mu.Unlock()

	s.logger.Infow("session starting", "session_id", sess.id, "transport", kind, "job_id", jobID)
	go sess.run(runCtx)

	return sess.id, nil
}

func (s *sessionService) Stop() {
	s.mu.Lock()
	sess := s.active
	s.active = nil
	s.mu.Unlock()

	if sess != nil {
		sess.teardown()
		s.logger.Infow("session stopped", "session_id", sess.id)
	}
}

// Send pushes a capture frame out over the socket transport. Frames are
// dropped silently unless the active session's socket is open.
func (s *sessionService) Send(ctx context.Context, frameB64 string) error {
	s.mu.Lock()
	sess := s.active
	s.mu.Unlock()

	if sess == nil || sess.State() != domain.StateOpen {
		return nil
	}
	return sess.transport.Send(ctx, frameB64)
}

func (s *sessionService) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	sess := s.active
	s.mu.Unlock()

	if sess == nil {
		return domain.SessionSnapshot{State: domain.StateIdle}
	}
	return sess.snapshot()
}

// streamSession is one transport connection's worth of ingestion state. All
// mutation happens in the run goroutine, in message arrival order; readers go
// through snapshot().
type streamSession struct {
	id        domain.SessionID
	kind      domain.TransportKind
	jobID     domain.JobID
	transport ports.Transport

	alerts  ports.AlertService
	metrics ports.Metrics
	logger  *zap.SugaredLogger

	reconnectDelay time.Duration
	fpsInterval    time.Duration

	mu        sync.RWMutex
	state     domain.ConnectionState
	frame     *domain.Frame
	analytics *domain.AnalyticsSnapshot
	stats     domain.Stats
	gotFrame  bool
	lastErr   error
	frameTick int // frames since last fps recompute

	cancel context.CancelFunc
	done   chan struct{}
}

func newStreamSession(
	transport ports.Transport,
	jobID domain.JobID,
	alerts ports.AlertService,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
	reconnectDelay time.Duration,
	fpsInterval time.Duration,
) *streamSession {
	return &streamSession{
		id:             domain.SessionID(utils.GenerateSessionID()),
		kind:           transport.Kind(),
		jobID:          jobID,
		transport:      transport,
		alerts:         alerts,
		metrics:        metrics,
		logger:         logger,
		reconnectDelay: reconnectDelay,
		fpsInterval:    fpsInterval,
		state:          domain.StateIdle,
		done:           make(chan struct{}),
	}
}

func (sess *streamSession) run(ctx context.Context) {
	defer close(sess.done)
	defer sess.transport.Close()

	for {
		sess.beginAttempt()

		if err := sess.transport.Connect(ctx); err != nil {
			if !sess.maybeReconnect(ctx, err) {
				return
			}
			continue
		}

		sess.setState(domain.StateOpen)
		sess.logger.Infow("session open", "session_id", sess.id, "transport", sess.kind)

		fpsCtx, stopFPS := context.WithCancel(ctx)
		go sess.fpsLoop(fpsCtx)
		err := sess.readLoop(ctx)
		stopFPS()

		if err == nil {
			// Stream completed cleanly.
			sess.setState(domain.StateClosed)
			sess.logger.Infow("session complete", "session_id", sess.id, "frames", sess.snapshot().Stats.FrameCount)
			return
		}
		if !sess.maybeReconnect(ctx, err) {
			return
		}
	}
}

// beginAttempt marks the start of one connection attempt. Stats reset here
// and only here: frame count is per connection lifetime.
func (sess *streamSession) beginAttempt() {
	sess.mu.Lock()
	sess.state = domain.StateConnecting
	sess.stats = domain.Stats{}
	sess.frameTick = 0
	sess.lastErr = nil
	sess.mu.Unlock()

	sess.metrics.SetConnectionState(string(domain.StateConnecting))
}

// readLoop pumps messages until the stream completes (nil) or the transport
// errors. Malformed payloads never show up here; the transport skips them.
func (sess *streamSession) readLoop(ctx context.Context) error {
	for {
		msg, err := sess.transport.Receive(ctx)
		if err != nil {
			return err
		}

		switch msg.Kind {
		case ports.MessageFrame:
			sess.applyFrame(msg.Frame)
		case ports.MessageAlert:
			sess.alerts.Ingest(*msg.Alert)
		case ports.MessageAnalytics:
			sess.applyAnalytics(msg.Analytics)
		case ports.MessageComplete:
			return nil
		}
	}
}

func (sess *streamSession) applyFrame(f *domain.Frame) {
	sess.mu.Lock()
	sess.frame = f // drop-oldest: replace, never queue
	sess.gotFrame = true
	sess.stats.ApplyFrame(f)
	sess.frameTick++
	sess.mu.Unlock()

	sess.metrics.FrameReceived(string(sess.kind))
}

func (sess *streamSession) applyAnalytics(snap *domain.AnalyticsSnapshot) {
	sess.mu.Lock()
	sess.analytics = snap // wholesale replace, never merged
	sess.mu.Unlock()
}

// maybeReconnect decides what a transport error means. The socket transport
// reconnects indefinitely after a fixed delay while the session stays active;
// the push-stream transport never self-reconnects.
func (sess *streamSession) maybeReconnect(ctx context.Context, cause error) bool {
	if ctx.Err() != nil {
		// Superseded or stopped; the error is just the teardown.
		sess.setState(domain.StateClosed)
		return false
	}

	if sess.kind != domain.TransportSocket {
		sess.fail(cause)
		return false
	}

	sess.setState(domain.StateClosed)
	sess.metrics.ReconnectScheduled(string(sess.kind))
	sess.logger.Warnw("socket closed, reconnecting",
		"session_id", sess.id, "delay", sess.reconnectDelay, "error", cause)

	select {
	case <-ctx.Done():
		return false
	case <-time.After(sess.reconnectDelay):
		return true
	}
}

// fail records a terminal failure. Before the first frame the pipeline may
// simply not have begun emitting, so the error classifies as transient.
func (sess *streamSession) fail(cause error) {
	sess.mu.Lock()
	if !sess.gotFrame {
		sess.lastErr = fmt.Errorf("%w: %v", domain.ErrStreamStarting, cause)
	} else {
		sess.lastErr = cause
	}
	sess.state = domain.StateFailed
	sess.mu.Unlock()

	sess.metrics.SetConnectionState(string(domain.StateFailed))
	sess.logger.Errorw("session failed", "session_id", sess.id, "error", cause)
}

func (sess *streamSession) fpsLoop(ctx context.Context) {
	ticker := time.NewTicker(sess.fpsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.mu.Lock()
			fps := float64(sess.frameTick) / sess.fpsInterval.Seconds()
			sess.stats.FPS = fps
			sess.frameTick = 0
			sess.mu.Unlock()

			sess.metrics.SetFPS(fps)
		}
	}
}

func (sess *streamSession) setState(state domain.ConnectionState) {
	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()

	sess.metrics.SetConnectionState(string(state))
}

func (sess *streamSession) State() domain.ConnectionState {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.state
}

func (sess *streamSession) snapshot() domain.SessionSnapshot {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	return domain.SessionSnapshot{
		ID:        sess.id,
		Transport: sess.kind,
		State:     sess.state,
		Frame:     sess.frame,
		Analytics: sess.analytics,
		Stats:     sess.stats,
		Err:       sess.lastErr,
	}
}

// teardown synchronously stops the session: cancel the run context, close the
// transport to unblock any pending Receive, then wait for the run loop to
// drain. Callers rely on no message being applied after teardown returns.
func (sess *streamSession) teardown() {
	if sess.cancel != nil {
		sess.cancel()
	}
	sess.transport.Close()
	<-sess.done
}
