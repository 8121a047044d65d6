package bubble

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
)

// DataClient delivers through the destination's native object store using
// operation-specific verbs; the data travels in the call.
type DataClient struct {
	client *resty.Client
	apiKey string
}

var _ infrastructure.ObjectClient = (*DataClient)(nil)

func NewDataClient(baseURL, apiKey string, timeout time.Duration) *DataClient {
	return &DataClient{
		client: newHTTPClient(baseURL, timeout),
		apiKey: apiKey,
	}
}

func (c *DataClient) Deliver(ctx context.Context, d infrastructure.Delivery) (*infrastructure.DeliveryResult, error) {
	req, err := BuildDataRequest(c.apiKey, d.Target, d.DestinationID, d.Operation, d.Data, d.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("DataClient - Deliver - BuildDataRequest: %w", err)
	}

	return execute(ctx, c.client, req)
}

// Get reads one destination object, used by orchestrations to verify a
// mirrored parent before patching its reference list.
func (c *DataClient) Get(ctx context.Context, objectType, destinationID string) (*infrastructure.DeliveryResult, error) {
	req := BuildGetRequest(c.apiKey, objectType, destinationID)

	return execute(ctx, c.client, req)
}

// Patch applies a partial update to one destination object.
func (c *DataClient) Patch(ctx context.Context, objectType, destinationID string, data map[string]any) (*infrastructure.DeliveryResult, error) {
	req, err := BuildDataRequest(c.apiKey, objectType, destinationID, entity.OpUpdate, data, "")
	if err != nil {
		return nil, fmt.Errorf("DataClient - Patch - BuildDataRequest: %w", err)
	}

	return execute(ctx, c.client, req)
}
