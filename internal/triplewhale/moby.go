package triplewhale

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// MobySource implements DataSource over a long-running local subprocess
// speaking line-delimited JSON-RPC on stdin/stdout. The subprocess is
// the vendor's natural-language query tool; each fetch sends one query
// line and the answer comes back tagged with the request ID. A single
// reader goroutine owns stdout and dispatches responses to waiting
// queries by ID, so a timed-out query leaves no reader behind and its
// late reply is simply discarded.
type MobySource struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	writeMu sync.Mutex // serializes request lines on stdin

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan rpcResponse
	readErr error // set once the reader loop exits; source is dead after
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Question string `json:"question"`
	Format   string `json:"format"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("moby error %d: %s", e.Code, e.Message)
}

// NewMobySource starts the query tool subprocess and attaches to its
// standard streams. Call Close when done to terminate it.
func NewMobySource(command string, args ...string) (*MobySource, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open moby stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open moby stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start moby subprocess: %w", err)
	}
	logger.Info("moby subprocess started", "command", command, "pid", cmd.Process.Pid)

	m := newMobyPipes(stdin, stdout)
	m.cmd = cmd
	return m, nil
}

// newMobyPipes attaches a MobySource to raw streams and starts the
// reader loop. Split out so tests can drive the protocol over in-memory
// pipes.
func newMobyPipes(stdin io.WriteCloser, stdout io.Reader) *MobySource {
	m := &MobySource{
		stdin:   stdin,
		pending: make(map[int64]chan rpcResponse),
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	go m.readLoop(scanner)

	return m
}

// readLoop is the sole reader of the subprocess stdout. It routes each
// response line to the query waiting on its ID; replies for queries
// that already gave up are dropped.
func (m *MobySource) readLoop(scanner *bufio.Scanner) {
	for scanner.Scan() {
		var resp rpcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			logger.Warn("moby response not parseable, line dropped", "err", err)
			continue
		}

		m.mu.Lock()
		ch, ok := m.pending[resp.ID]
		if ok {
			delete(m.pending, resp.ID)
		}
		m.mu.Unlock()

		if !ok {
			logger.Debug("moby late reply discarded", "id", resp.ID)
			continue
		}
		ch <- resp
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}

	m.mu.Lock()
	m.readErr = fmt.Errorf("moby subprocess closed output: %w", err)
	for id, ch := range m.pending {
		delete(m.pending, id)
		close(ch)
	}
	m.mu.Unlock()
}

// Close terminates the subprocess.
func (m *MobySource) Close() error {
	m.writeMu.Lock()
	m.stdin.Close()
	m.writeMu.Unlock()

	if m.cmd == nil {
		return nil
	}
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	return m.cmd.Wait()
}

// query sends one JSON-RPC request and decodes the result payload into out.
func (m *MobySource) query(ctx context.Context, question string, out interface{}) error {
	m.mu.Lock()
	if m.readErr != nil {
		err := m.readErr
		m.mu.Unlock()
		return err
	}
	m.nextID++
	id := m.nextID
	ch := make(chan rpcResponse, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "moby.query",
		Params:  rpcParams{Question: question, Format: "json"},
	}

	line, err := json.Marshal(req)
	if err != nil {
		m.forget(id)
		return fmt.Errorf("failed to marshal moby request: %w", err)
	}

	m.writeMu.Lock()
	_, err = m.stdin.Write(append(line, '\n'))
	m.writeMu.Unlock()
	if err != nil {
		m.forget(id)
		return fmt.Errorf("failed to write moby request: %w", err)
	}

	var resp rpcResponse
	select {
	case r, ok := <-ch:
		if !ok {
			m.mu.Lock()
			err := m.readErr
			m.mu.Unlock()
			return err
		}
		resp = r
	case <-ctx.Done():
		m.forget(id)
		return ctx.Err()
	}

	if resp.Error != nil {
		return resp.Error
	}

	var result struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("failed to parse moby result: %w", err)
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to parse moby data: %w", err)
	}
	return nil
}

// forget abandons a pending request so its eventual reply is discarded.
func (m *MobySource) forget(id int64) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

const dateFmt = "2006-01-02"

// Customers retrieves customers via the query tool.
func (m *MobySource) Customers(ctx context.Context, r platform.DateRange) ([]Customer, error) {
	question := fmt.Sprintf(
		"List all customers active between %s and %s with id, email, first_name, last_name, phone, orders_count, total_spent, created_at, updated_at, accepts_marketing and tags",
		r.From.UTC().Format(dateFmt), r.To.UTC().Format(dateFmt))

	var recs []customerRecord
	if err := m.query(ctx, question, &recs); err != nil {
		return nil, err
	}

	customers := make([]Customer, 0, len(recs))
	for _, rec := range recs {
		customers = append(customers, normalizeCustomer(rec))
	}
	return customers, nil
}

// Orders retrieves orders via the query tool.
func (m *MobySource) Orders(ctx context.Context, r platform.DateRange) ([]Order, error) {
	question := fmt.Sprintf(
		"List all orders placed between %s and %s with id, customer_id, email, total, currency, created_at, source and campaign",
		r.From.UTC().Format(dateFmt), r.To.UTC().Format(dateFmt))

	var recs []orderRecord
	if err := m.query(ctx, question, &recs); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(recs))
	for _, rec := range recs {
		orders = append(orders, normalizeOrder(rec))
	}
	return orders, nil
}

// Metrics retrieves the commerce aggregate via the query tool.
func (m *MobySource) Metrics(ctx context.Context, r platform.DateRange) (Metrics, error) {
	question := fmt.Sprintf(
		"Summarize total_revenue, order_count and average_order_value for orders between %s and %s",
		r.From.UTC().Format(dateFmt), r.To.UTC().Format(dateFmt))

	var metrics Metrics
	if err := m.query(ctx, question, &metrics); err != nil {
		return Metrics{}, err
	}
	return metrics, nil
}

// Ping verifies the subprocess answers a trivial query.
func (m *MobySource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var ok bool
	return m.query(ctx, "Reply with the JSON value true", &ok)
}
