package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a unique wizard session ID with the "wiz_" prefix
// Format: wiz_<uuid>
func NewSessionID() string {
	return "wiz_" + uuid.New().String()
}

// NewRequestID generates a unique request correlation ID
func NewRequestID() string {
	return uuid.New().String()
}
