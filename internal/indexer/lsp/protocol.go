// Package lsp implements a minimal Language Server Protocol client used for
// one-shot symbol extraction: start a language server, open a
// file, request its document symbols, close it, and eventually shut the
// server down. It never edits documents and never reuses an open buffer
// across files.
package lsp

import "encoding/json"

// request is an outbound JSON-RPC 2.0 request or notification. Omit ID for
// notifications.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// response is an inbound JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Position is a zero-based line/character location, as LSP defines it.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end Position pair.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DocumentSymbol is the hierarchical shape returned by
// textDocument/documentSymbol when hierarchicalDocumentSymbolSupport is
// advertised.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           int              `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

func initializeParams() map[string]any {
	return map[string]any{
		"processId": nil,
		"rootUri":   nil,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{
					"hierarchicalDocumentSymbolSupport": true,
				},
			},
		},
	}
}

func didOpenParams(uri, languageID, text string) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	}
}

func didCloseParams(uri string) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}
}

func documentSymbolParams(uri string) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}
}
