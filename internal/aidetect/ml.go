package aidetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"govscan/internal/logging"
)

// DefaultMLTimeout bounds the remote classification call.
const DefaultMLTimeout = 5 * time.Second

// MLClient calls an external classification endpoint. The zero value (empty
// endpoint) is valid and always reports the signal as unavailable.
type MLClient struct {
	endpoint string
	client   *http.Client
	logger   *logging.Logger
}

// NewMLClient creates a classifier client. An empty endpoint disables the
// signal entirely.
func NewMLClient(endpoint string, timeout time.Duration, logger *logging.Logger) *MLClient {
	if timeout <= 0 {
		timeout = DefaultMLTimeout
	}
	return &MLClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type mlRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type mlResponse struct {
	Probability  float64  `json:"probability"`
	ModelVersion string   `json:"model_version"`
	FeaturesUsed []string `json:"features_used"`
}

// Classify sends the file content to the classification endpoint. Any failure
// (missing configuration, network error, timeout, non-2xx, bad payload)
// returns an unavailable signal rather than an error: the ML signal degrades,
// it never blocks the pipeline.
func (c *MLClient) Classify(ctx context.Context, code, language string) MLSignal {
	if c == nil || c.endpoint == "" {
		return MLSignal{}
	}

	body, err := json.Marshal(mlRequest{Code: code, Language: language})
	if err != nil {
		return MLSignal{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.debugf("ml request build failed", err)
		return MLSignal{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.debugf("ml call failed", err)
		return MLSignal{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.debugf("ml call failed", fmt.Errorf("status %d", resp.StatusCode))
		return MLSignal{}
	}

	var out mlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.debugf("ml response decode failed", err)
		return MLSignal{}
	}

	if out.Probability < 0 || out.Probability > 1 {
		return MLSignal{}
	}

	return MLSignal{
		Available:    true,
		Probability:  out.Probability,
		ModelVersion: out.ModelVersion,
	}
}

func (c *MLClient) debugf(msg string, err error) {
	if c.logger != nil {
		c.logger.Debug(msg, map[string]interface{}{"error": err.Error()})
	}
}
