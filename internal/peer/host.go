// Package peer implements the TCP side of the bank node: the listening
// acceptor, the per-connection session loop, and the live-peer registry.
package peer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/peerbank/node/internal/bank"
	"github.com/peerbank/node/internal/command"
	"github.com/peerbank/node/internal/observability"
	"github.com/peerbank/node/pkg"
)

// StoreFactory allocates the dedicated database handle for one session and
// returns the store plus a release func. An error means the peer cannot be
// served at all; the acceptor closes the connection without starting a
// session.
type StoreFactory func(ctx context.Context, sessionID string) (bank.Store, func(context.Context), error)

// Config holds the acceptor settings.
type Config struct {
	Addr        string
	Port        int
	Backlog     int // informational; the OS listen backlog applies
	IdleTimeout time.Duration
	RateLimit   int // commands/sec per session, 0 disables
}

// Host owns the listening socket and the set of live peer sessions.
type Host struct {
	cfg      Config
	logger   *zap.Logger
	registry *command.Registry
	stores   StoreFactory

	mu       sync.Mutex
	peers    map[*Session]struct{}
	listener net.Listener
	wg       sync.WaitGroup
	closing  atomic.Bool
}

func NewHost(logger *zap.Logger, cfg Config, registry *command.Registry, stores StoreFactory) *Host {
	return &Host{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		stores:   stores,
		peers:    make(map[*Session]struct{}),
	}
}

// Start binds the listening socket and accepts peers until Shutdown closes
// the listener or the bind fails. Each accepted peer runs in its own
// goroutine; the accept loop itself blocks only on Accept.
func (h *Host) Start(ctx context.Context) error {
	addr := net.JoinHostPort(h.cfg.Addr, strconv.Itoa(h.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		h.logger.Error("failed to bind listening socket",
			zap.String("addr", addr), zap.Error(err))
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	h.mu.Lock()
	h.listener = listener
	h.mu.Unlock()

	h.logger.Info("node listening",
		zap.String("addr", listener.Addr().String()), zap.Int("backlog", h.cfg.Backlog))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if h.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			h.logger.Error("failed to accept connection", zap.Error(err))
			continue
		}
		h.accept(ctx, conn)
	}
}

// Addr returns the bound listener address, nil before Start.
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

func (h *Host) accept(ctx context.Context, conn net.Conn) {
	observability.ConnectionsTotal.Inc()
	id := uuid.New()
	h.logger.Info("peer connected",
		zap.String(pkg.SessionId, id.String()),
		zap.String(pkg.PeerAddr, conn.RemoteAddr().String()))

	store, release, err := h.stores(ctx, id.String())
	if err != nil {
		h.logger.Error("failed to allocate database handle for peer",
			zap.String(pkg.SessionId, id.String()),
			zap.String(pkg.PeerAddr, conn.RemoteAddr().String()),
			zap.Error(err))
		_ = conn.Close()
		return
	}

	var limiter *rate.Limiter
	if h.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateLimit)
	}
	sess := &Session{
		id:          id,
		conn:        conn,
		store:       store,
		cleanup:     release,
		registry:    h.registry,
		logger:      h.logger,
		idleTimeout: h.cfg.IdleTimeout,
		limiter:     limiter,
	}

	h.mu.Lock()
	h.peers[sess] = struct{}{}
	h.mu.Unlock()
	observability.PeersConnected.Inc()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		sess.run(ctx)
		h.disconnect(ctx, sess)
	}()
}

// disconnect closes a peer session and removes it from the registry.
// Idempotent: a second call for the same session is a no-op.
func (h *Host) disconnect(ctx context.Context, sess *Session) {
	h.mu.Lock()
	_, live := h.peers[sess]
	delete(h.peers, sess)
	h.mu.Unlock()
	if !live {
		return
	}

	sess.close(ctx)
	observability.PeersConnected.Dec()
	h.logger.Info("peer disconnected",
		zap.String(pkg.SessionId, sess.id.String()),
		zap.String(pkg.PeerAddr, sess.conn.RemoteAddr().String()))
}

// Shutdown stops accepting, disconnects all live peers, and waits for their
// session loops to finish or the context to expire.
func (h *Host) Shutdown(ctx context.Context) {
	h.closing.Store(true)

	h.mu.Lock()
	listener := h.listener
	live := make([]*Session, 0, len(h.peers))
	for sess := range h.peers {
		live = append(live, sess)
	}
	h.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}
	for _, sess := range live {
		h.disconnect(ctx, sess)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("shutdown deadline reached before all sessions finished")
	}
}
