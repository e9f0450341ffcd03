package wishlist

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/remote"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/metrics"
)

// Entry is one wishlisted product together with the handle the remote
// service assigned to it.
type Entry struct {
	Product     identity.ProductReference
	EntryHandle string
}

type remoteStore interface {
	ListByUser(ctx context.Context, userID string) ([]remote.WishlistEntryPayload, error)
	Create(ctx context.Context, userID, productID string) (string, error)
	DeleteByHandle(ctx context.Context, handle string) error
}

// Store mirrors the user's wishlist against the remote service. The entry
// collection and the productID-to-handle map are always mutated together:
// every remote confirmation updates both or neither.
type Store struct {
	mu      sync.Mutex
	remote  remoteStore
	log     *logger.Logger
	metrics *metrics.CommerceMetrics

	entries []Entry
	handles map[string]string
}

func NewStore(remoteStore remoteStore, log *logger.Logger, m *metrics.CommerceMetrics) *Store {
	return &Store{
		remote:  remoteStore,
		log:     log,
		metrics: m,
		handles: map[string]string{},
	}
}

// Load replaces the local collection with the remote state for the given
// identity. Entries whose product reference cannot be normalized are
// skipped, not fatal.
func (s *Store) Load(ctx context.Context, ident identity.Identity) error {
	if !ident.Known() {
		s.log.Warn(ctx, "wishlist load skipped: identity unknown")
		return pkgerrors.New(pkgerrors.CodeIdentity, "cannot load wishlist without a resolved identity")
	}

	payload, err := s.remote.ListByUser(ctx, ident.ID)
	if err != nil {
		s.metrics.IncWishlistOp("load", "failure")
		return err
	}

	entries := make([]Entry, 0, len(payload))
	handles := make(map[string]string, len(payload))
	for _, item := range payload {
		if item.Product == nil {
			s.log.Warn(ctx, "wishlist entry without product reference skipped")
			continue
		}
		product, err := identity.NormalizeProduct(item.Product)
		if err != nil {
			s.log.Warn(s.log.WithField(ctx, "entry_handle", item.EntryHandle.String()), "wishlist entry product unresolvable, skipped")
			continue
		}
		entries = append(entries, Entry{Product: product, EntryHandle: item.EntryHandle.String()})
		handles[product.ProductID] = item.EntryHandle.String()
	}

	s.mu.Lock()
	s.entries = entries
	s.handles = handles
	s.mu.Unlock()

	s.metrics.IncWishlistOp("load", "success")
	return nil
}

// Add wishlists the product for the given identity. The remote service is
// asked first; local state changes only once a handle comes back.
func (s *Store) Add(ctx context.Context, ident identity.Identity, rawProduct map[string]any) error {
	if !ident.Known() {
		s.log.Warn(ctx, "wishlist add skipped: identity unknown")
		return pkgerrors.New(pkgerrors.CodeIdentity, "cannot modify wishlist without a resolved identity")
	}

	product, err := identity.NormalizeProduct(rawProduct)
	if err != nil {
		s.metrics.IncWishlistOp("add", "failure")
		return err
	}

	if s.Contains(product.ProductID) {
		return nil
	}

	handle, err := s.remote.Create(ctx, ident.ID, product.ProductID)
	if err != nil {
		s.metrics.IncWishlistOp("add", "failure")
		return err
	}

	s.mu.Lock()
	s.entries = append(s.entries, Entry{Product: product, EntryHandle: handle})
	s.handles[product.ProductID] = handle
	s.mu.Unlock()

	s.metrics.IncWishlistOp("add", "success")
	return nil
}

// Remove deletes the entry for productID. A product with no tracked handle
// means the map and the collection have drifted apart, so it is surfaced
// as an error rather than swallowed.
func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	handle, ok := s.handles[productID]
	s.mu.Unlock()
	if !ok {
		s.metrics.IncWishlistOp("remove", "failure")
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not tracked locally").
			WithDetails(map[string]any{"productId": productID})
	}

	if err := s.remote.DeleteByHandle(ctx, handle); err != nil {
		s.metrics.IncWishlistOp("remove", "failure")
		return err
	}

	s.mu.Lock()
	delete(s.handles, productID)
	for i, entry := range s.entries {
		if entry.Product.ProductID == productID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.metrics.IncWishlistOp("remove", "success")
	return nil
}

// Clear deletes every tracked entry remotely, best effort: one failed
// delete does not stop the rest, and the local collection is emptied
// regardless of individual outcomes.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	handles := make([]string, 0, len(s.handles))
	for _, handle := range s.handles {
		handles = append(handles, handle)
	}
	s.mu.Unlock()

	var errs error
	for _, handle := range handles {
		if err := s.remote.DeleteByHandle(ctx, handle); err != nil {
			s.log.Error(ctx, "wishlist entry delete failed during clear", err)
			errs = multierr.Append(errs, err)
		}
	}

	s.mu.Lock()
	s.entries = nil
	s.handles = map[string]string{}
	s.mu.Unlock()

	if errs != nil {
		s.metrics.IncWishlistOp("clear", "failure")
	} else {
		s.metrics.IncWishlistOp("clear", "success")
	}
	return errs
}

// Contains reports local membership only; it never touches the network.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[productID]
	return ok
}

// Entries returns a snapshot of the local collection.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
