package sync

import (
	"context"
	"fmt"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
)

const (
	// destinationIDField is the source-side column holding the id the
	// destination platform assigned to a mirrored record.
	destinationIDField = "bubble_id"

	listingTable = "listing"
	userTable    = "user"

	// hostUserField links a listing to the user hosting it.
	hostUserField = "host_user_id"
	// hostListingsColumn is the user-side reference list of hosted listings.
	hostListingsColumn = "listing_ids"
	// hostListingsDestinationField is the same list under the destination's
	// field naming.
	hostListingsDestinationField = "Listings"
)

// propagateListingReference keeps a host's listing reference list consistent
// after a listing was mirrored. The local append is authoritative; mirroring
// the append to the destination is best-effort because the primary store is
// the system of record. Nothing here fails the listing's own sync.
func (uc *SyncUseCase) propagateListingReference(ctx context.Context, item *entity.QueueItem, listingDestinationID string) {
	hostID, ok := item.Payload[hostUserField].(string)
	if !ok || hostID == "" {
		return
	}

	refs, err := uc.recordRepo.GetReferenceList(ctx, userTable, hostID, hostListingsColumn)
	if err != nil {
		uc.logger.Error(err, "SyncUseCase - propagateListingReference - uc.recordRepo.GetReferenceList")

		return
	}

	// idempotent append: a repeated delivery of the same listing is a no-op
	for _, ref := range refs {
		if ref == item.RecordID {
			return
		}
	}
	refs = append(refs, item.RecordID)

	if err := uc.recordRepo.SetReferenceList(ctx, userTable, hostID, hostListingsColumn, refs); err != nil {
		uc.logger.Error(err, "SyncUseCase - propagateListingReference - uc.recordRepo.SetReferenceList")

		return
	}

	// mirror the append only when the host itself is already mirrored
	host, err := uc.recordRepo.GetRecord(ctx, userTable, hostID)
	if err != nil {
		uc.logger.Error(err, "SyncUseCase - propagateListingReference - uc.recordRepo.GetRecord")

		return
	}

	hostDestinationID, ok := host[destinationIDField].(string)
	if !ok || hostDestinationID == "" {
		return
	}

	objectType := uc.mapper.DestinationTable(userTable)

	// confirm the destination still holds the host before patching it; the
	// mirror may lag behind the local store
	if _, err := uc.dataClient.Get(ctx, objectType, hostDestinationID); err != nil {
		uc.logger.Error(err, "SyncUseCase - propagateListingReference - uc.dataClient.Get")

		return
	}

	destinationRefs := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == item.RecordID {
			destinationRefs = append(destinationRefs, listingDestinationID)
			continue
		}
		destinationRefs = append(destinationRefs, ref)
	}

	_, err = uc.dataClient.Patch(ctx, objectType, hostDestinationID, map[string]any{
		hostListingsDestinationField: destinationRefs,
	})
	if err != nil {
		uc.logger.Error(err, "SyncUseCase - propagateListingReference - uc.dataClient.Patch")
	}
}

// SyncSignup mirrors a freshly created user record to the destination in one
// call and writes the assigned id back. Unlike reference propagation this
// flow has no optional steps: any failure aborts it.
func (uc *SyncUseCase) SyncSignup(ctx context.Context, userID string) error {
	record, err := uc.recordRepo.GetRecord(ctx, userTable, userID)
	if err != nil {
		return fmt.Errorf("SyncUseCase - SyncSignup - uc.recordRepo.GetRecord: %w", err)
	}

	cfg, err := uc.configRepo.GetByTable(ctx, userTable)
	if err != nil {
		return fmt.Errorf("SyncUseCase - SyncSignup - uc.configRepo.GetByTable: %w", err)
	}

	data := uc.transformer.TransformRecord(record, cfg.FieldMapping, cfg.ExcludedFields)

	result, err := uc.dataClient.Deliver(ctx, infrastructure.Delivery{
		Target:    uc.mapper.DestinationTable(cfg.TargetObjectType),
		RecordID:  userID,
		Operation: entity.OpInsert,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("SyncUseCase - SyncSignup - uc.dataClient.Deliver: %w", err)
	}

	if result.DestinationID == "" {
		return fmt.Errorf("SyncUseCase - SyncSignup: destination returned no id for user %s", userID)
	}

	if err := uc.recordRepo.SetDestinationID(ctx, userTable, userID, result.DestinationID); err != nil {
		return fmt.Errorf("SyncUseCase - SyncSignup - uc.recordRepo.SetDestinationID: %w", err)
	}

	return nil
}
