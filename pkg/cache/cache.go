package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines the cache operations the pipeline uses. Values are stored
// as bytes; Set accepts []byte, string, or anything JSON-marshalable, and
// Get decodes into *[]byte, *string, or a JSON-unmarshalable destination.
type Service interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache encode: %w", err)
		}
		return b, nil
	}
}

func decode(raw []byte, dest any) error {
	switch d := dest.(type) {
	case *[]byte:
		*d = append((*d)[:0], raw...)
		return nil
	case *string:
		*d = string(raw)
		return nil
	default:
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("cache decode: %w", err)
		}
		return nil
	}
}
