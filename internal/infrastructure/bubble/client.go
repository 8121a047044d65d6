package bubble

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
)

const _defaultTimeout = 30 * time.Second

func newHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
}

// execute performs the single network call for a built request and parses
// the response. An empty success body synthesizes a default success result
// instead of failing parse; a non-2xx status or an unparsable success body
// becomes a *DeliveryError.
func execute(ctx context.Context, client *resty.Client, req Request) (*infrastructure.DeliveryResult, error) {
	r := client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)

	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, fmt.Errorf("bubble - execute - r.Execute: %w", err)
	}

	if resp.IsError() {
		return nil, &DeliveryError{
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		return &infrastructure.DeliveryResult{
			Response: map[string]any{"status": "success"},
		}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, &DeliveryError{
			StatusCode: resp.StatusCode(),
			Body:       body,
		}
	}

	result := &infrastructure.DeliveryResult{Response: parsed}
	if id, ok := parsed["id"].(string); ok {
		result.DestinationID = id
	}

	return result, nil
}
