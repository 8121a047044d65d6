package sync

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/bubble"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo"
)

// retryDelays is the fixed backoff table: 1, 5, 15, 30 minutes, then capped
// at one hour for every further attempt.
var retryDelays = [...]time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	1800 * time.Second,
	3600 * time.Second,
}

// retryDelay returns the backoff before attempt retryCount+1, indexed by
// min(retryCount-1, len-1).
func retryDelay(retryCount int) time.Duration {
	idx := retryCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}

	return retryDelays[idx]
}

// planFailure decides the outcome of a failed delivery attempt: back to
// pending with a computed next_retry_at while budget remains, terminal
// failure with next_retry_at cleared once retries are exhausted.
func (uc *SyncUseCase) planFailure(item *entity.QueueItem, deliveryErr error) repo.FailureMark {
	mark := repo.FailureMark{
		Message:    deliveryErr.Error(),
		RetryCount: item.RetryCount + 1,
	}

	var de *bubble.DeliveryError
	if errors.As(deliveryErr, &de) {
		details, err := json.Marshal(map[string]any{
			"status_code": de.StatusCode,
			"body":        de.Body,
		})
		if err == nil {
			mark.Details = string(details)
		}
	}

	maxRetries := item.MaxRetries
	if maxRetries <= 0 {
		maxRetries = uc.maxRetries
	}

	if mark.RetryCount >= maxRetries {
		mark.Terminal = true

		return mark
	}

	next := time.Now().Add(retryDelay(mark.RetryCount))
	mark.NextRetryAt = &next

	return mark
}
