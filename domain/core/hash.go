package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Hash represents a content hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashFields hashes a sequence of records. Fields are length-prefixed so
// ("ab","c") and ("a","bc") differ.
func HashFields(records [][]string) Hash {
	h := sha256.New()
	for _, rec := range records {
		for _, f := range rec {
			writeField(h, f)
		}
		h.Write([]byte{0})
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func writeField(w io.Writer, f string) {
	n := len(f)
	w.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	io.WriteString(w, f)
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 characters, for logs
func (h Hash) Short() string {
	if len(h) > 12 {
		return string(h[:12])
	}
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}
