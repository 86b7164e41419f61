package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an upload name safe to embed in a storage key.
// Traversal sequences are rejected outright rather than stripped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		default:
			return r
		}
	}, s)
	if s == "" {
		return "", errInvalidFileName
	}
	return s, nil
}

// HashUserKey derives a stable, filesystem-safe directory name from a user
// ID. OAuth subjects contain ':' which some backends dislike in key paths.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}
