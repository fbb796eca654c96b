package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/common"
	"github.com/ternarybob/tessera/internal/models"
	"github.com/ternarybob/tessera/internal/services/atlassian"
)

// Manager owns the single shared MCP gateway process. It spawns the
// gateway on first use, verifies liveness before every spawn attempt, and
// multiplexes JSON-RPC calls from all users over one HTTP endpoint.
// Credentials are never passed to the process; they arrive per request.
type Manager struct {
	config         common.GatewayConfig
	logger         arbor.ILogger
	client         *http.Client
	baseURL        string
	pollInterval   time.Duration
	requestTimeout time.Duration

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time

	requestID atomic.Int64
}

// NewManager creates a gateway manager from configuration
func NewManager(config common.GatewayConfig, logger arbor.ILogger) *Manager {
	return &Manager{
		config:         config,
		logger:         logger,
		client:         &http.Client{},
		baseURL:        config.BaseURL(),
		pollInterval:   config.PollIntervalDuration(),
		requestTimeout: config.RequestTimeoutDuration(),
	}
}

// EnsureRunning reports whether the gateway is serving, spawning it first
// if necessary. The check-then-spawn sequence runs under the lock so
// concurrent callers can never race a second process into existence.
func (m *Manager) EnsureRunning(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.healthy(ctx) {
		return true
	}

	if err := m.spawn(); err != nil {
		m.logger.Error().Err(err).Str("command", m.config.Command).Msg("Failed to start gateway process")
		return false
	}

	for i := 0; i < m.config.StartupRetries; i++ {
		select {
		case <-ctx.Done():
			m.terminate()
			return false
		case <-time.After(m.pollInterval):
		}
		if m.healthy(ctx) {
			m.logger.Info().Str("url", m.baseURL).Msg("Gateway is ready")
			return true
		}
	}

	m.logger.Error().
		Int("retries", m.config.StartupRetries).
		Msg("Gateway did not become healthy in time")
	m.terminate()
	return false
}

// healthy probes the gateway health endpoint. Any 200 counts.
func (m *Manager) healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (m *Manager) spawn() error {
	cmd := exec.Command(m.config.Command,
		"--transport", "streamable-http",
		"--port", strconv.Itoa(m.config.Port),
		"--host", m.config.Host)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", m.config.Command, err)
	}

	m.cmd = cmd
	m.startedAt = time.Now()
	m.logger.Info().
		Str("command", m.config.Command).
		Int("port", m.config.Port).
		Int("pid", cmd.Process.Pid).
		Msg("Started gateway process")

	go func() {
		// Reap the child so a crashed gateway never lingers as a zombie.
		_ = cmd.Wait()
	}()

	return nil
}

// Invoke calls a gateway tool over JSON-RPC and returns the raw payload.
// The gateway is started on demand first; a gateway that cannot be brought
// up fails as *atlassian.ConnectionError before any JSON-RPC attempt.
// Deadline overruns come back as *atlassian.TimeoutError, everything else
// that prevents a usable result as *atlassian.ConnectionError.
func (m *Manager) Invoke(ctx context.Context, tool string, args map[string]interface{}, headers http.Header) (json.RawMessage, error) {
	if !m.EnsureRunning(ctx) {
		return nil, &atlassian.ConnectionError{Service: tool, Message: "MCP gateway is not available"}
	}

	callCtx := ctx
	if m.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.requestTimeout)
		defer cancel()
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      m.requestID.Add(1),
		Method:  "tools/call",
		Params: rpcParams{
			Name:      tool,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, &atlassian.ConnectionError{Service: tool, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, m.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return nil, &atlassian.ConnectionError{Service: tool, Message: "failed to build request", Err: err}
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &atlassian.TimeoutError{Service: tool, Message: "gateway did not respond in time", Err: err}
		}
		return nil, &atlassian.ConnectionError{Service: tool, Message: "gateway request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &atlassian.ConnectionError{
			Service: tool,
			Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode),
		}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &atlassian.ConnectionError{Service: tool, Message: "failed to decode response", Err: err}
	}
	if rpcResp.Error != nil {
		return nil, &atlassian.ConnectionError{
			Service: tool,
			Message: fmt.Sprintf("gateway error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
		}
	}

	return extractPayload(tool, rpcResp.Result)
}

// extractPayload unwraps the tools/call result envelope down to the tool's
// own payload. Tool output rides as text content holding JSON.
func extractPayload(tool string, result json.RawMessage) (json.RawMessage, error) {
	if len(result) == 0 {
		return nil, &atlassian.ConnectionError{Service: tool, Message: "gateway returned empty result"}
	}

	var tr toolResult
	if err := json.Unmarshal(result, &tr); err != nil || len(tr.Content) == 0 {
		// Not a content envelope; treat the result as the payload itself.
		return result, nil
	}

	text := tr.Content[0].Text
	if tr.IsError {
		return nil, &atlassian.ConnectionError{Service: tool, Message: text}
	}

	if json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}
	quoted, _ := json.Marshal(text)
	return quoted, nil
}

// Status reports the current gateway state without spawning anything
func (m *Manager) Status() models.GatewayStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := models.GatewayStatus{
		Running: m.healthy(context.Background()),
		URL:     m.baseURL,
	}
	if m.cmd != nil {
		status.StartedAt = m.startedAt
	}
	return status
}

// Stop terminates the managed gateway process if this manager spawned one.
// Externally started gateways are left alone. Best effort; errors are
// logged and swallowed.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminate()
}

func (m *Manager) terminate() {
	if m.cmd == nil || m.cmd.Process == nil {
		return
	}

	pid := m.cmd.Process.Pid
	if err := m.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		m.logger.Debug().Err(err).Int("pid", pid).Msg("Gateway already gone")
	} else {
		m.logger.Info().Int("pid", pid).Msg("Stopped gateway process")
	}
	m.cmd = nil
	m.startedAt = time.Time{}
}
