package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateZoneID generates a human-readable, time-derived zone ID. Used when
// the remote registry does not echo one back.
func GenerateZoneID() string {
	return fmt.Sprintf("zone-%d", time.Now().UnixMilli())
}

// GenerateAlertID generates a unique alert ID
func GenerateAlertID() string {
	return GenerateID("alert")
}

// GenerateSessionID generates a unique stream session ID
func GenerateSessionID() string {
	return GenerateID("session")
}

// GenerateID generates a prefixed unique ID
func GenerateID(prefix string) string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), hex.EncodeToString(b))
}
