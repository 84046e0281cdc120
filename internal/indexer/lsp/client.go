package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeindex/internal/coreerr"
	"codeindex/internal/logging"
)

// RequestTimeout bounds every LSP request; a request that exceeds it is
// abandoned and counted as a per-file error.
const RequestTimeout = 30 * time.Second

// Client is a single language server process, speaking JSON-RPC over
// stdio with Content-Length framing. One Client is started lazily per
// detected language and reused for every file of that language within a
// single analyze() call; it is never shared across goroutines performing
// unrelated extractions without synchronization — callers serialize their
// own request sequencing per file.
type Client struct {
	mu sync.Mutex

	command string
	args    []string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser

	pending map[int]chan *response
	nextID  int

	closed bool
}

// Start launches the language server subprocess and performs the
// initialize/initialized handshake. The caller owns the returned Client
// and must call Shutdown when done with it.
func Start(ctx context.Context, command string, args ...string) (*Client, error) {
	log := logging.Get(logging.CategoryLSP)
	c := &Client{
		command: command,
		args:    args,
		pending: make(map[int]chan *response),
		nextID:  1,
	}

	c.cmd = exec.CommandContext(ctx, command, args...)
	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return nil, coreerr.New(coreerr.LspUnavailable, "start", command, err)
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return nil, coreerr.New(coreerr.LspUnavailable, "start", command, err)
	}
	c.stdin = stdin
	c.stdout = stdout

	if err := c.cmd.Start(); err != nil {
		return nil, coreerr.New(coreerr.LspUnavailable, "start", command, err)
	}
	log.Info("started language server: %s %v", command, args)

	go c.readLoop()

	initCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	if _, err := c.call(initCtx, "initialize", initializeParams()); err != nil {
		c.killQuiet()
		return nil, coreerr.New(coreerr.LspUnavailable, "initialize", command, err)
	}
	if err := c.notify("initialized", map[string]any{}); err != nil {
		c.killQuiet()
		return nil, coreerr.New(coreerr.LspUnavailable, "initialized", command, err)
	}
	return c, nil
}

// newClientFromPipes wires a Client directly to an io.Reader/io.Writer
// pair instead of spawning a subprocess, for tests that fake a language
// server in-process.
func newClientFromPipes(ctx context.Context, stdin io.WriteCloser, stdout io.ReadCloser) (*Client, error) {
	c := &Client{
		pending: make(map[int]chan *response),
		nextID:  1,
		stdin:   stdin,
		stdout:  stdout,
	}
	go c.readLoop()

	initCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	if _, err := c.call(initCtx, "initialize", initializeParams()); err != nil {
		return nil, err
	}
	if err := c.notify("initialized", map[string]any{}); err != nil {
		return nil, err
	}
	return c, nil
}

// readLoop reads Content-Length-framed messages from stdout and dispatches
// responses to their waiting caller by id. It exits when stdout closes.
func (c *Client) readLoop() {
	reader := bufio.NewReader(c.stdout)
	log := logging.Get(logging.CategoryLSP)
	for {
		length, err := readContentLength(reader)
		if err != nil {
			c.drainPending()
			return
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(reader, body); err != nil {
			c.drainPending()
			return
		}

		var raw struct {
			ID *int `json:"id"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			log.Warn("malformed LSP message: %v", err)
			continue
		}
		if raw.ID == nil {
			// Server-initiated notification; extraction doesn't act on these.
			continue
		}

		var resp response
		if err := json.Unmarshal(body, &resp); err != nil {
			log.Warn("failed to decode LSP response: %v", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

func readContentLength(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err != nil {
				return 0, err
			}
			length = n
		}
	}
	if length < 0 {
		return 0, fmt.Errorf("missing Content-Length header")
	}
	return length, nil
}

func (c *Client) drainPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) write(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("lsp client closed")
	}
	_, err = fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

// call sends a request and blocks for its response or the context
// deadline, whichever comes first. On timeout the in-flight request is
// abandoned — its response (if it arrives later) is dropped silently.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan *response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	// The write runs on its own goroutine so a server that stops reading
	// its stdin cannot hold the caller past the context deadline.
	written := make(chan error, 1)
	go func() {
		written <- c.write(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	}()
	select {
	case err := <-written:
		if err != nil {
			c.mu.Lock()
			delete(c.pending, id)
			c.mu.Unlock()
			return nil, err
		}
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, coreerr.New(coreerr.LspTimeout, method, "", ctx.Err())
	}

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, coreerr.New(coreerr.LspUnavailable, method, "", fmt.Errorf("connection closed"))
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("lsp error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, coreerr.New(coreerr.LspTimeout, method, "", ctx.Err())
	}
}

func (c *Client) notify(method string, params interface{}) error {
	return c.write(request{JSONRPC: "2.0", Method: method, Params: params})
}

// DocumentSymbols opens uri with text, requests its document symbols, and
// closes it again. A 30s timeout applies to the documentSymbol request
// only; on timeout the caller should count a per-file error and continue.
func (c *Client) DocumentSymbols(ctx context.Context, uri, languageID, text string) ([]DocumentSymbol, error) {
	if err := c.notify("textDocument/didOpen", didOpenParams(uri, languageID, text)); err != nil {
		return nil, coreerr.New(coreerr.IoError, "didOpen", uri, err)
	}
	defer c.notify("textDocument/didClose", didCloseParams(uri))

	reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	raw, err := c.call(reqCtx, "textDocument/documentSymbol", documentSymbolParams(uri))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var symbols []DocumentSymbol
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, coreerr.New(coreerr.IoError, "decode_symbols", uri, err)
	}
	return symbols, nil
}

// Shutdown sends the shutdown/exit sequence and terminates the child
// process, abandoning any in-flight requests.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, _ = c.call(shutdownCtx, "shutdown", nil)
	_ = c.notify("exit", nil)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.killQuiet()
	return nil
}

func (c *Client) killQuiet() {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
}
