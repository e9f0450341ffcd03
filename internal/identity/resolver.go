package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
)

// Identity is the normalized view of a user payload. The historical alias
// UserID is kept alongside ID so collaborators reading either name agree.
type Identity struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Role        enums.Role `json:"role"`
	DisplayName string     `json:"displayName,omitempty"`
	Email       string     `json:"email,omitempty"`
}

// Known reports whether the identity carries a resolved identifier.
func (i Identity) Known() bool {
	return strings.TrimSpace(i.ID) != ""
}

// ProductReference is the normalized view of a product payload; the
// identifier always lands under ProductID regardless of the source field.
type ProductReference struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// NormalizeUser resolves the user identifier from whichever field the
// backend happened to use: id, userId, or the same pair nested one level
// inside a user sub-object. Missing identifiers are an error, never a
// guest default.
func NormalizeUser(raw map[string]any) (Identity, error) {
	id, ok := resolveIdentifier(raw, "id", "userId", "user")
	if !ok {
		return Identity{}, pkgerrors.New(pkgerrors.CodeIdentity, "user payload carries no identifier")
	}

	ident := Identity{
		ID:          id,
		UserID:      id,
		Role:        enums.RoleCustomer,
		DisplayName: stringField(raw, "displayName", "username", "name"),
		Email:       stringField(raw, "email"),
	}
	if role, err := enums.ParseRole(stringField(raw, "role")); err == nil {
		ident.Role = role
	}
	if nested, ok := raw["user"].(map[string]any); ok {
		if ident.DisplayName == "" {
			ident.DisplayName = stringField(nested, "displayName", "username", "name")
		}
		if ident.Email == "" {
			ident.Email = stringField(nested, "email")
		}
	}
	return ident, nil
}

// NormalizeProduct resolves the product identifier from productId, id, or
// the nested product sub-object, in that order.
func NormalizeProduct(raw map[string]any) (ProductReference, error) {
	id, ok := resolveIdentifier(raw, "productId", "id", "product")
	if !ok {
		return ProductReference{}, pkgerrors.New(pkgerrors.CodeIdentity, "product payload carries no identifier")
	}

	ref := ProductReference{
		ProductID: id,
		Name:      stringField(raw, "name", "title"),
		Price:     priceField(raw, "price"),
		ImageURL:  stringField(raw, "imageUrl"),
	}
	if nested, ok := raw["product"].(map[string]any); ok {
		if ref.Name == "" {
			ref.Name = stringField(nested, "name", "title")
		}
		if ref.Price.IsZero() {
			ref.Price = priceField(nested, "price")
		}
		if ref.ImageURL == "" {
			ref.ImageURL = stringField(nested, "imageUrl")
		}
	}
	return ref, nil
}

// resolveIdentifier walks canonical field, alias field, then the same pair
// one level inside the named sub-object.
func resolveIdentifier(raw map[string]any, canonical, alias, nestedKey string) (string, bool) {
	if raw == nil {
		return "", false
	}
	if id, ok := identifierValue(raw[canonical]); ok {
		return id, true
	}
	if id, ok := identifierValue(raw[alias]); ok {
		return id, true
	}
	if nested, ok := raw[nestedKey].(map[string]any); ok {
		if id, ok := identifierValue(nested[canonical]); ok {
			return id, true
		}
		if id, ok := identifierValue(nested[alias]); ok {
			return id, true
		}
	}
	return "", false
}

func identifierValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	case json.Number:
		return v.String(), v.String() != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func priceField(raw map[string]any, key string) decimal.Decimal {
	switch v := raw[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if parsed, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case json.Number:
		if parsed, err := decimal.NewFromString(v.String()); err == nil {
			return parsed
		}
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}

// FormatIdentifier renders any supported identifier shape for logging.
func FormatIdentifier(value any) string {
	if id, ok := identifierValue(value); ok {
		return id
	}
	return fmt.Sprintf("%v", value)
}
