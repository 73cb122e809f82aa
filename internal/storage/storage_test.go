package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ProviderRequiresConfig(t *testing.T) {
	_, err := NewS3Provider(S3Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestGetFileURL(t *testing.T) {
	tests := []struct {
		name     string
		config   S3Config
		expected string
	}{
		{
			name:     "Public URL",
			config:   S3Config{PublicURL: "https://cdn.example.com/", Prefix: "/uploads/"},
			expected: "https://cdn.example.com/uploads/a.pdf",
		},
		{
			name:     "Custom endpoint",
			config:   S3Config{Endpoint: "https://minio.local:9000", Bucket: "docs"},
			expected: "https://minio.local:9000/docs/a.pdf",
		},
		{
			name:     "Amazon endpoint",
			config:   S3Config{Bucket: "docs", Region: "eu-west-1"},
			expected: "https://docs.s3.eu-west-1.amazonaws.com/a.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &S3Provider{config: tt.config}
			url, err := p.GetFileURL("a.pdf")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}
}
