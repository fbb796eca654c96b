package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ternarybob/tessera/internal/models"
)

// GatewayManager owns the shared MCP gateway process and the JSON-RPC
// channel to it. Per-user credentials never touch the process; they ride
// on each request as headers.
type GatewayManager interface {
	// EnsureRunning starts the gateway if it is not already reachable and
	// reports whether it is serving. Safe for concurrent callers; at most
	// one process is ever spawned.
	EnsureRunning(ctx context.Context) bool

	// Invoke calls a gateway tool with the given arguments and per-request
	// headers and returns the raw result payload.
	Invoke(ctx context.Context, tool string, args map[string]interface{}, headers http.Header) (json.RawMessage, error)

	// Status reports the current gateway process state
	Status() models.GatewayStatus

	// Stop terminates the managed gateway process if one was spawned
	Stop()
}
