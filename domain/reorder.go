package domain

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// ItemStore defines the persistence methods the reorder service needs.
type ItemStore interface {
	// GetItem loads an item by id; a missing item is (nil, nil).
	GetItem(ctx context.Context, id string) (*Item, error)
	// GetColumn loads a column term by id; a missing term is (nil, nil).
	GetColumn(ctx context.Context, id string) (*Column, error)
	// SaveItemPlacement persists a new status reference and, when weight is
	// non-nil, a new ordering weight for the item.
	SaveItemPlacement(ctx context.Context, it *Item, statusID string, weight *int) error
}

// ReorderResult acknowledges an applied column reorder.
type ReorderResult struct {
	ColumnID string
	// Processed is the number of items actually persisted, which may be
	// lower than the submitted count when entries were skipped.
	Processed int
}

// ReorderService applies client-submitted reorderings and status changes.
type ReorderService struct {
	store ItemStore
	authz Authorizer
	log   *log.Logger
}

func NewReorderService(store ItemStore, authz Authorizer, logger *log.Logger) ReorderService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return ReorderService{store: store, authz: authz, log: logger}
}

// ReorderColumn moves the submitted items into the column, assigning each
// item's weight from its index in the submitted order. Entries that are
// missing, of a kind without a status attribute, or not updatable by the
// principal are skipped; partial success is not an error. Each surviving
// item is persisted individually, so a failure mid-batch leaves the earlier
// entries applied.
func (s ReorderService) ReorderColumn(ctx context.Context, p Principal, columnID string, itemIDs []string) (ReorderResult, error) {
	col, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return ReorderResult{}, err
	}
	if col == nil || !IsColumnVocabulary(col.Vocabulary) {
		return ReorderResult{}, Rejected("Invalid column")
	}
	if len(itemIDs) == 0 {
		return ReorderResult{}, Rejected("Missing or invalid ticket_ids")
	}

	result := ReorderResult{ColumnID: col.ID}
	for idx, id := range itemIDs {
		it, err := s.store.GetItem(ctx, id)
		if err != nil {
			return result, err
		}
		if it == nil || !KindOf(it.Kind).HasStatus || !s.authz.CanUpdate(p, it) {
			s.log.WithFields(log.Fields{"item": id, "column": col.ID, "user": p.UserID}).Debug("reorder entry skipped")
			continue
		}
		var w *int
		if KindOf(it.Kind).HasWeight {
			weight := idx
			w = &weight
		}
		if err := s.store.SaveItemPlacement(ctx, it, col.ID, w); err != nil {
			return result, err
		}
		result.Processed++
	}
	return result, nil
}

// SetStatus moves a single item to a new column without touching its
// weight. Unlike the batch reorder, an authorization failure here is
// reported, not swallowed.
func (s ReorderService) SetStatus(ctx context.Context, p Principal, itemID, statusID string) (*Item, error) {
	it, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrNotFound
	}
	if !KindOf(it.Kind).HasStatus {
		return nil, Rejected("Invalid ticket")
	}
	if !s.authz.CanUpdate(p, it) {
		return nil, ErrForbidden
	}
	if statusID == "" {
		return nil, Rejected("Missing status_id")
	}
	col, err := s.store.GetColumn(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if col == nil || !IsColumnVocabulary(col.Vocabulary) {
		return nil, Rejected("Invalid status")
	}
	if err := s.store.SaveItemPlacement(ctx, it, col.ID, nil); err != nil {
		return nil, err
	}
	return it, nil
}
