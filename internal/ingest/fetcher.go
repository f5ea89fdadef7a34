package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HTTPFetcher retrieves attachment bytes from the transport's media
// endpoint: GET <baseURL>/<messageID>.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPFetcher creates a fetcher against the transport media endpoint.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchAttachment downloads the media content for a message reference.
func (f *HTTPFetcher) FetchAttachment(ctx context.Context, messageID string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/%s", f.baseURL, url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media request returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	return content, resp.Header.Get("Content-Type"), nil
}
