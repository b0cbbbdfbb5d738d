package utils

import (
	"github.com/google/uuid"
)

// GenerateLivestreamID generates a unique livestream ID
func GenerateLivestreamID() string {
	return "ls_" + uuid.NewString()
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}
