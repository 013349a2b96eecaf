// Package command implements the protocol verbs of the bank node. Each verb
// is a Handler that validates its parameter string, talks to the account
// store, and formats a single response line. Handlers never write to the
// connection themselves; the session layer frames and flushes the line.
package command

import (
	"context"
	"net"

	"github.com/peerbank/node/internal/bank"
)

// Request carries everything a handler may need for one command. Store is nil
// when the session could not obtain a database connection; handlers that need
// storage must answer "ER Failed to access database." in that case before
// doing anything else.
type Request struct {
	SessionID string
	Peer      net.Addr
	Params    string
	HasParams bool
	Store     bank.Store
}

// Handler executes one protocol verb. Execute returns the response line
// without the CRLF terminator; error responses carry the "ER " prefix.
type Handler interface {
	Name() string
	Execute(ctx context.Context, req Request) string
}

// Registry maps verb names to handlers. It is populated once during startup
// and only read afterwards, so it needs no locking.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under its verb name. A second registration under an
// already-used name is a silent no-op: the first registration wins.
func (r *Registry) Register(h Handler) {
	name := h.Name()
	if _, ok := r.handlers[name]; ok {
		return
	}
	r.handlers[name] = h
}

// Lookup returns the handler for the given verb name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func errLine(message string) string {
	return "ER " + message
}

// Protocol-level responses shared by the session layer.
const (
	RespCommandNotFound = "ER Command not found."
	respNoDatabase      = "ER Failed to access database."
)
