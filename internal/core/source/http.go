package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/exovista/exovista/internal/core/scene"
)

// HTTPSource fetches precomputed textures from a texture service over
// plain HTTP: GET {base}/textures/{entityId}/{tier} returns raw image
// bytes, 404 marks an explicit absence.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, id scene.EntityID, tier Tier) ([]byte, error) {
	if tier != TierLow && tier != TierHigh {
		return nil, ErrInvalidTier
	}
	url := fmt.Sprintf("%s/textures/%s/%s", s.baseURL, string(id), tier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}
	return data, nil
}

var _ Source = (*HTTPSource)(nil)
