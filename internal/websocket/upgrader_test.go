package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://editor.example.com/"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://editor.example.com", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1", true},
		{"https://evil.example.com", false},
		{"https://localhost.evil.com", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, originAllowed(tt.origin, allowed))
		})
	}

	assert.True(t, originAllowed("https://anything.example", []string{"*"}))
}
