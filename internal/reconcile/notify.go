package reconcile

import (
	"context"
	"fmt"
	"log"

	"github.com/stackops/issueops/internal/tracker"
)

// Notifier posts comments to issues. Comment failures propagate to the
// caller; the duplicate closer wraps this with per-item isolation instead.
type Notifier struct {
	store  tracker.SearchableIssueStore
	logger *log.Logger
}

// NewNotifier creates a Notifier. A nil logger means log.Default().
func NewNotifier(store tracker.SearchableIssueStore, logger *log.Logger) (*Notifier, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{store: store, logger: logger}, nil
}

// Comment posts a single comment to the given issue.
func (n *Notifier) Comment(ctx context.Context, number int, body string) error {
	if err := n.store.Comment(ctx, number, body); err != nil {
		n.logger.Printf("[COMMENT] failed to comment on issue #%d: %v", number, err)
		return fmt.Errorf("comment on #%d: %w", number, err)
	}
	n.logger.Printf("[COMMENT] posted comment on issue #%d", number)
	return nil
}
