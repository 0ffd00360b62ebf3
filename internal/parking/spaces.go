package parking

import (
	"context"
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SpaceListing struct {
	Items  []Space `json:"items"`
	Count  int     `json:"count"`
	Cursor string  `json:"cursor,omitempty"`
}

type cursorKey struct {
	SpaceNumber string `json:"spaceNumber"`
}

// AvailableSpaces pages through reservable spaces in space-number order.
// limit 0 selects DefaultPageSize.
func (s *Service) AvailableSpaces(ctx context.Context, limit int, cursor string) (*SpaceListing, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, ValidationError("Validation failed", "limit must be between 1 and 100")
	}
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, ValidationError("Validation failed", "cursor is invalid")
	}

	page, err := s.Store.ListAvailable(ctx, limit, after)
	if err != nil {
		return nil, DatabaseError("list available spaces", err)
	}
	items := page.Items
	if items == nil {
		items = []Space{}
	}
	return &SpaceListing{Items: items, Count: len(items), Cursor: EncodeCursor(page.Next)}, nil
}

// EncodeCursor wraps the store's last key as an opaque URL-safe token.
func EncodeCursor(lastKey string) string {
	if lastKey == "" {
		return ""
	}
	raw, _ := json.Marshal(cursorKey{SpaceNumber: lastKey})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	var k cursorKey
	if err := json.Unmarshal(raw, &k); err != nil {
		return "", err
	}
	return k.SpaceNumber, nil
}
