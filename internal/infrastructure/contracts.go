package infrastructure

import (
	"context"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

type (
	// Delivery is one outbound call to the destination platform.
	Delivery struct {
		// Target is the workflow name or object type the sync config binds
		// the source table to.
		Target string
		// DestinationID addresses an existing destination object, required
		// for update/delete in direct-object mode.
		DestinationID  string
		RecordID       string
		Operation      entity.Operation
		Data           map[string]any
		IdempotencyKey string
	}

	// DeliveryResult is the parsed outcome of a successful delivery.
	DeliveryResult struct {
		// DestinationID is the id the destination assigned, set for
		// direct-object creates.
		DestinationID string
		Response      map[string]any
	}

	// DeliveryClient sends one delivery to the destination platform. A
	// non-2xx response or malformed body yields a *bubble.DeliveryError.
	DeliveryClient interface {
		Deliver(ctx context.Context, d Delivery) (*DeliveryResult, error)
	}

	// ObjectClient extends delivery with direct reads and partial updates
	// of destination objects, addressed by destination id.
	ObjectClient interface {
		DeliveryClient
		Get(ctx context.Context, objectType, destinationID string) (*DeliveryResult, error)
		Patch(ctx context.Context, objectType, destinationID string, data map[string]any) (*DeliveryResult, error)
	}

	// TriggerPublisher emits fire-and-forget processing triggers. Publish
	// failures are the caller's to log, never to propagate.
	TriggerPublisher interface {
		PublishTrigger(ctx context.Context, tableFilter string) error
		Close() error
	}
)
