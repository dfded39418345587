package creatomate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/pipeline/template"
	"github.com/reelforge/reelforge/service"
)

// Client submits render jobs to the Creatomate API.
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	client     *http.Client
}

func NewClient() (*Client, error) {
	if config.CreatomateApiKey == "" {
		return nil, errors.New("creatomate api key is not configured")
	}
	httpClient, err := service.GetHttpClientWithProxy(config.OutboundProxyURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.CreatomateBaseURL, "/"),
		apiKey:     config.CreatomateApiKey,
		webhookURL: config.ServerAddress + "/api/webhook/render",
		client:     httpClient,
	}, nil
}

// Submit posts the template for rendering and returns the render id. The
// render itself completes asynchronously through the webhook.
func (c *Client) Submit(ctx context.Context, tmpl *template.RenderTemplate, meta *Metadata) (string, error) {
	body, err := json.Marshal(&RenderRequest{
		Source:     tmpl,
		WebhookURL: c.webhookURL,
		Metadata:   meta.Encode(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/renders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "render submit failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("render submit returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("render submit returned status %d", resp.StatusCode)
	}

	// the API returns one render per output; a single-source submit yields
	// exactly one
	var renders []Render
	if err := json.Unmarshal(respBody, &renders); err != nil {
		return "", errors.Wrap(err, "invalid render submit response")
	}
	if len(renders) == 0 || renders[0].Id == "" {
		return "", errors.New("render submit response contains no render id")
	}
	return renders[0].Id, nil
}
