package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"math"

	"codeindex/internal/coreerr"
)

// EncodeVector packs a float32 vector as little-endian bytes for the blob
// column. vector_length is stored separately and is authoritative.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a little-endian f32 blob into length values.
func DecodeVector(b []byte, length int) ([]float32, error) {
	if len(b) < length*4 {
		return nil, errors.New("vector blob shorter than vector_length")
	}
	out := make([]float32, length)
	for i := 0; i < length; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// PutEmbeddings bulk-upserts embedding rows, overwriting on
// (file_path, symbol_name) conflict, inside one transaction.
func (s *Store) PutEmbeddings(embeddings []*Embedding) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, coreerr.New(coreerr.StoreError, "put_embeddings", "", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO embeddings (file_path, symbol_name, symbol_kind, description, code_snippet, vector, vector_length)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path, symbol_name) DO UPDATE SET
			symbol_kind=excluded.symbol_kind, description=excluded.description,
			code_snippet=excluded.code_snippet, vector=excluded.vector, vector_length=excluded.vector_length
	`)
	if err != nil {
		return 0, coreerr.New(coreerr.StoreError, "put_embeddings", "", err)
	}
	defer stmt.Close()

	for _, e := range embeddings {
		_, err := stmt.Exec(e.FilePath, e.SymbolName, string(e.SymbolKind), e.Description, e.CodeSnippet,
			EncodeVector(e.Vector), len(e.Vector))
		if err != nil {
			return 0, coreerr.New(coreerr.StoreError, "put_embedding", e.SymbolName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, coreerr.New(coreerr.StoreError, "put_embeddings", "", err)
	}
	return len(embeddings), nil
}

// ListEmbeddings returns every embedding row, for full-scan cosine ranking.
func (s *Store) ListEmbeddings() ([]*Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT file_path, symbol_name, symbol_kind, description, code_snippet, vector, vector_length FROM embeddings`)
	if err != nil {
		return nil, coreerr.New(coreerr.StoreError, "list_embeddings", "", err)
	}
	defer rows.Close()

	var out []*Embedding
	for rows.Next() {
		var e Embedding
		var kind, desc, snippet sql.NullString
		var blob []byte
		var length int
		if err := rows.Scan(&e.FilePath, &e.SymbolName, &kind, &desc, &snippet, &blob, &length); err != nil {
			return nil, coreerr.New(coreerr.StoreError, "scan_embedding", "", err)
		}
		e.SymbolKind = SymbolKind(kind.String)
		e.Description = desc.String
		e.CodeSnippet = snippet.String
		vec, err := DecodeVector(blob, length)
		if err != nil {
			return nil, coreerr.New(coreerr.StoreError, "decode_vector", e.SymbolName, err)
		}
		e.Vector = vec
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountEmbeddings returns the number of embedding rows, for stats().
func (s *Store) CountEmbeddings() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, coreerr.New(coreerr.StoreError, "count_embeddings", "", err)
	}
	return n, nil
}
