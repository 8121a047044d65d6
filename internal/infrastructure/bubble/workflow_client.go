package bubble

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
)

// WorkflowClient delivers through one generic endpoint per table; business
// logic lives on the destination side.
type WorkflowClient struct {
	client *resty.Client
	apiKey string
}

var _ infrastructure.DeliveryClient = (*WorkflowClient)(nil)

func NewWorkflowClient(baseURL, apiKey string, timeout time.Duration) *WorkflowClient {
	return &WorkflowClient{
		client: newHTTPClient(baseURL, timeout),
		apiKey: apiKey,
	}
}

func (c *WorkflowClient) Deliver(ctx context.Context, d infrastructure.Delivery) (*infrastructure.DeliveryResult, error) {
	req := BuildWorkflowRequest(c.apiKey, d.Target, d.RecordID, d.Operation, d.Data, d.IdempotencyKey)

	return execute(ctx, c.client, req)
}
