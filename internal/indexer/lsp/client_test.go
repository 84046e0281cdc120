package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeServer answers initialize/initialized/documentSymbol/shutdown with
// canned responses over Content-Length framing, simulating a real language
// server without spawning one.
func fakeServer(t *testing.T, serverIn io.Reader, serverOut io.Writer, symbols []DocumentSymbol) {
	t.Helper()
	reader := bufio.NewReader(serverIn)
	go func() {
		for {
			length, err := readContentLength(reader)
			if err != nil {
				return
			}
			body := make([]byte, length)
			if _, err := io.ReadFull(reader, body); err != nil {
				return
			}
			var req request
			if err := json.Unmarshal(body, &req); err != nil {
				continue
			}
			if req.Method == "initialized" || req.Method == "textDocument/didOpen" ||
				req.Method == "textDocument/didClose" || req.Method == "exit" {
				continue
			}

			var result any
			switch req.Method {
			case "initialize":
				result = map[string]any{"capabilities": map[string]any{}}
			case "textDocument/documentSymbol":
				result = symbols
			case "shutdown":
				result = nil
			}
			resp := response{JSONRPC: "2.0", ID: req.ID}
			resp.Result, _ = json.Marshal(result)
			data, _ := json.Marshal(resp)
			fmt.Fprintf(serverOut, "Content-Length: %d\r\n\r\n%s", len(data), data)
		}
	}()
}

func TestClientInitializeAndDocumentSymbols(t *testing.T) {
	clientReadFromServer, serverWriteToClient := io.Pipe()
	serverReadFromClient, clientWriteToServer := io.Pipe()
	t.Cleanup(func() {
		clientReadFromServer.Close()
		serverWriteToClient.Close()
		serverReadFromClient.Close()
		clientWriteToServer.Close()
	})

	fakeServer(t, serverReadFromClient, serverWriteToClient, []DocumentSymbol{
		{Name: "foo", Kind: 12, Range: Range{End: Position{Line: 2}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := newClientFromPipes(ctx, clientWriteToServer, clientReadFromServer)
	require.NoError(t, err)

	symbols, err := c.DocumentSymbols(ctx, "file:///a.go", "go", "func foo() {}")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	require.Equal(t, "foo", symbols[0].Name)
	require.Equal(t, 12, symbols[0].Kind)
}

func TestClientCallTimesOutOnNoResponse(t *testing.T) {
	clientReadFromServer, serverWriteToClient := io.Pipe()
	serverReadFromClient, clientWriteToServer := io.Pipe()
	t.Cleanup(func() {
		clientReadFromServer.Close()
		serverWriteToClient.Close()
		serverReadFromClient.Close()
		clientWriteToServer.Close()
	})

	c := &Client{pending: make(map[int]chan *response), nextID: 1, stdin: clientWriteToServer, stdout: clientReadFromServer}
	go c.readLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.call(ctx, "textDocument/documentSymbol", documentSymbolParams("file:///a.go"))
	require.Error(t, err)
}
