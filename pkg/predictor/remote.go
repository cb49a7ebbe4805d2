package predictor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/menta2k/ph-analyzer/pkg/features"
)

// DefaultTimeout bounds a single remote prediction.
const DefaultTimeout = 10 * time.Second

// Remote calls a model served over HTTP. The endpoint receives
// {"features": [r,g,b,h,s,v]} and answers {"prediction": x}.
type Remote struct {
	url        string
	httpClient *http.Client
}

type predictRequest struct {
	Features features.Vector `json:"features"`
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
	Error      string   `json:"error,omitempty"`
}

// NewRemote creates a client for the model endpoint at url.
func NewRemote(url string, timeout time.Duration) (*Remote, error) {
	if url == "" {
		return nil, fmt.Errorf("predictor url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("predictor url must be http or https: %s", url)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Remote{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Predict sends vec to the model endpoint.
func (r *Remote) Predict(ctx context.Context, vec features.Vector) (float64, error) {
	respBody, err := r.sendRequest(ctx, predictRequest{Features: vec})
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	var resp predictResponse
	if err := jsoniter.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("model error: %s", resp.Error)
	}
	if resp.Prediction == nil {
		return 0, fmt.Errorf("no prediction in response")
	}

	return *resp.Prediction, nil
}

func (r *Remote) sendRequest(ctx context.Context, payload interface{}) ([]byte, error) {
	jsonData, err := jsoniter.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
