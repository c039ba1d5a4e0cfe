package database

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// NewReportID returns a 24-hex id: four bytes of big-endian Unix seconds followed
// by eight random bytes.
func NewReportID(now time.Time) (string, error) {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(now.Unix()))
	if _, err := rand.Read(b[4:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// ValidReportID reports whether id has the report id shape.
func ValidReportID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
