package db

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const opIDPrefix = "op-"

// NormalizeOperationID ensures an operation ID has the op- prefix
// Accepts bare hex IDs like "abc12345" and returns "op-abc12345"
func NormalizeOperationID(id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, opIDPrefix) {
		return opIDPrefix + id
	}
	return id
}

// NewOperationID generates a unique sync operation ID
func NewOperationID() (string, error) {
	bytes := make([]byte, 4) // 8 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return opIDPrefix + hex.EncodeToString(bytes), nil
}
