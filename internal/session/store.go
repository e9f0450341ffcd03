package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/pkg/enums"
	redisclient "github.com/shopsphere/storefront/pkg/redis"
)

// ErrNoSession is returned when no persisted session exists for the scope.
var ErrNoSession = errors.New("no persisted session")

// defaultScope keys the single active session of this storefront instance.
const defaultScope = "current"

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type keyer interface {
	SessionIdentityKey(scope string) string
	SessionTokenKey(scope string) string
	LastOrderKey(scope string) string
}

// Store persists the current identity, auth token, and last-order snapshot
// across process restarts. Cleared on logout.
type Store struct {
	kv    kvStore
	keyer keyer
	scope string
}

// OrderSnapshot is the minimal crash-recovery record of the most recently
// created order. It is a fallback, never the source of truth.
type OrderSnapshot struct {
	OrderID     string            `json:"orderId"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Status      enums.OrderStatus `json:"status"`
	OrderDate   time.Time         `json:"orderDate"`
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Store{kv: client, keyer: client, scope: defaultScope}, nil
}

// SaveSession persists the normalized identity and auth token.
func (s *Store) SaveSession(ctx context.Context, ident identity.Identity, token string) error {
	if !ident.Known() {
		return fmt.Errorf("identity is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("auth token is required")
	}
	payload, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	if err := s.kv.Set(ctx, s.keyer.SessionIdentityKey(s.scope), string(payload), 0); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.keyer.SessionTokenKey(s.scope), token, 0)
}

// LoadSession returns the persisted identity and token, or ErrNoSession.
func (s *Store) LoadSession(ctx context.Context) (identity.Identity, string, error) {
	raw, err := s.kv.Get(ctx, s.keyer.SessionIdentityKey(s.scope))
	if err != nil {
		return identity.Identity{}, "", wrapMissing(err)
	}
	var ident identity.Identity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil {
		return identity.Identity{}, "", fmt.Errorf("decoding identity: %w", err)
	}
	token, err := s.kv.Get(ctx, s.keyer.SessionTokenKey(s.scope))
	if err != nil {
		return identity.Identity{}, "", wrapMissing(err)
	}
	return ident, token, nil
}

// SaveLastOrder records the crash-recovery snapshot of the latest order.
func (s *Store) SaveLastOrder(ctx context.Context, snapshot OrderSnapshot) error {
	if strings.TrimSpace(snapshot.OrderID) == "" {
		return fmt.Errorf("order id is required")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding order snapshot: %w", err)
	}
	return s.kv.Set(ctx, s.keyer.LastOrderKey(s.scope), string(payload), 0)
}

// LoadLastOrder returns the latest order snapshot, or ErrNoSession.
func (s *Store) LoadLastOrder(ctx context.Context) (OrderSnapshot, error) {
	raw, err := s.kv.Get(ctx, s.keyer.LastOrderKey(s.scope))
	if err != nil {
		return OrderSnapshot{}, wrapMissing(err)
	}
	var snapshot OrderSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return OrderSnapshot{}, fmt.Errorf("decoding order snapshot: %w", err)
	}
	return snapshot, nil
}

// Clear removes every persisted key for the scope; used on logout.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Del(ctx,
		s.keyer.SessionIdentityKey(s.scope),
		s.keyer.SessionTokenKey(s.scope),
		s.keyer.LastOrderKey(s.scope),
	)
}

func wrapMissing(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrNoSession
	}
	return err
}
