package peer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/peerbank/node/internal/bank"
	"github.com/peerbank/node/internal/command"
	"github.com/peerbank/node/internal/observability"
	"github.com/peerbank/node/pkg"
)

// Session owns one accepted peer connection. It reads newline-terminated
// messages, dispatches them through the command registry, and writes one CRLF
// response line per message. Commands on a session run strictly in arrival
// order; the loop never pipelines.
type Session struct {
	id          uuid.UUID
	conn        net.Conn
	store       bank.Store // nil when the session has no database handle
	cleanup     func(context.Context)
	registry    *command.Registry
	logger      *zap.Logger
	idleTimeout time.Duration
	limiter     *rate.Limiter // nil when rate limiting is disabled
}

// run processes messages until EOF, idle timeout, or an I/O failure. Terminal
// conditions get no response line; the caller tears the session down.
func (s *Session) run(ctx context.Context) {
	reader := bufio.NewReader(s.conn)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			s.logger.Info("failed to arm idle timeout, disconnecting",
				zap.String(pkg.SessionId, s.id.String()), zap.Error(err))
			return
		}
		line, err := reader.ReadString('\n')
		if line != "" {
			if werr := s.handleLine(ctx, line); werr != nil {
				s.logger.Info("failed to write response, disconnecting",
					zap.String(pkg.SessionId, s.id.String()), zap.Error(werr))
				return
			}
		}
		if err == nil {
			continue
		}
		var nerr net.Error
		switch {
		case errors.As(err, &nerr) && nerr.Timeout():
			s.logger.Info("peer timed out, disconnecting",
				zap.String(pkg.SessionId, s.id.String()),
				zap.String(pkg.PeerAddr, s.conn.RemoteAddr().String()))
		case errors.Is(err, io.EOF):
			s.logger.Info("peer closed the connection, disconnecting",
				zap.String(pkg.SessionId, s.id.String()),
				zap.String(pkg.PeerAddr, s.conn.RemoteAddr().String()))
		default:
			s.logger.Info("i/o error while reading from peer, disconnecting",
				zap.String(pkg.SessionId, s.id.String()), zap.Error(err))
		}
		return
	}
}

// handleLine tokenizes one message into verb and parameter remainder, looks
// the verb up, and writes the handler's response. The remainder keeps its
// inner spacing; only its edges are trimmed.
func (s *Session) handleLine(ctx context.Context, raw string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	line := strings.TrimRight(raw, "\r\n")
	parts := strings.SplitN(line, " ", 2)
	verb := strings.ToUpper(strings.TrimSpace(parts[0]))

	req := command.Request{
		SessionID: s.id.String(),
		Peer:      s.conn.RemoteAddr(),
		Store:     s.store,
	}
	if len(parts) == 2 {
		req.Params = strings.TrimSpace(parts[1])
		req.HasParams = true
	}

	handler, ok := s.registry.Lookup(verb)
	if !ok {
		observability.UnknownCommandsTotal.Inc()
		s.logger.Info("unknown command",
			zap.String(pkg.SessionId, s.id.String()), zap.String(pkg.Verb, verb))
		return s.write(command.RespCommandNotFound)
	}

	start := time.Now()
	resp := handler.Execute(ctx, req)
	observability.CommandDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if strings.HasPrefix(resp, "ER ") {
		outcome = "error"
	}
	observability.CommandsTotal.WithLabelValues(verb, outcome).Inc()
	return s.write(resp)
}

// write sends one response line. Each line is flushed immediately; the
// connection is unbuffered on the write side.
func (s *Session) write(line string) error {
	_, err := s.conn.Write([]byte(line + "\r\n"))
	return err
}

// close releases the connection and the session's database handle. Safe to
// call more than once.
func (s *Session) close(ctx context.Context) {
	_ = s.conn.Close()
	if s.cleanup != nil {
		s.cleanup(ctx)
		s.cleanup = nil
	}
}
