package s3blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBucketAndRegion(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")

	_, err = New(context.Background(), ClientConfig{Bucket: "payload-archive"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestWithScheme(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
	}{
		{"already has scheme", "https://s3.example.com", false, "https://s3.example.com"},
		{"bare host with ssl", "minio.internal", true, "https://minio.internal"},
		{"bare host without ssl", "minio.internal", false, "http://minio.internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withScheme(tt.endpoint, tt.useSSL))
		})
	}
}
