package feed

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddFeedHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://status.example.com/rss", http.NoBody)
	assert.NoError(t, err)

	addFeedHeaders(req, "test-agent/1.0")
	assert.Equal(t, "test-agent/1.0", req.Header.Get("User-Agent"))
	assert.Equal(t, feedAccept, req.Header.Get("Accept"))
	assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", req.Header.Get("Pragma"))
	assert.NotEmpty(t, req.Header.Get("Accept-Language"))
}
