package indexer

import (
	"crypto/md5"
	"encoding/hex"
	"os"
)

// ChangeKind classifies a scanned file against the previously recorded
// state.
type ChangeKind string

const (
	ChangeNew       ChangeKind = "new"
	ChangeChanged   ChangeKind = "changed"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeDeleted   ChangeKind = "deleted"
)

// HashFile computes the 128-bit content hash (MD5) of a file's bytes.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Classify compares a freshly computed hash against the previously stored
// one to decide whether the file needs re-extraction.
func Classify(prevHash, newHash string, existed bool) ChangeKind {
	if !existed {
		return ChangeNew
	}
	if prevHash == newHash {
		return ChangeUnchanged
	}
	return ChangeChanged
}
