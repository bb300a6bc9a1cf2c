package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"host only", "https://cdn.example.com", "avatars/u1/a.png", "https://cdn.example.com/avatars/u1/a.png"},
		{"with path", "https://cdn.example.com/media", "avatars/u1/a.png", "https://cdn.example.com/media/avatars/u1/a.png"},
		{"trailing slash", "https://cdn.example.com/media/", "/submissions/7/x.pdf", "https://cdn.example.com/media/submissions/7/x.pdf"},
		{"empty key", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := parseBaseURL(tt.base)
			require.NoError(t, err)
			require.Equal(t, tt.want, publicURL(base, tt.key))
		})
	}
}

func TestParseBaseURLRejectsRelative(t *testing.T) {
	_, err := parseBaseURL("cdn.example.com/media")
	require.Error(t, err)
}
