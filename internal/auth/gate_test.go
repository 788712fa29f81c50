package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGatePIN(t *testing.T) {
	tests := []struct {
		hour, minute int
		expected     string
	}{
		{14, 37, "7341"},
		{9, 5, "5090"},
		{0, 0, "0000"},
		{23, 59, "9532"},
	}

	for _, tt := range tests {
		at := time.Date(2026, 10, 15, tt.hour, tt.minute, 12, 0, time.UTC)
		assert.Equal(t, tt.expected, GatePIN(at))
	}
}

func TestCheckGatePIN(t *testing.T) {
	now := time.Date(2026, 10, 15, 14, 38, 2, 0, time.UTC)

	assert.True(t, CheckGatePIN("8341", now))
	assert.True(t, CheckGatePIN("7341", now))
	assert.False(t, CheckGatePIN("6341", now))
	assert.False(t, CheckGatePIN("", now))
}
