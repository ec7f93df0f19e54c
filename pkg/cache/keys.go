package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ChartDataKey builds a cache key for a chart data request. The request is
// serialized to JSON (struct fields marshal in declaration order, map keys
// sorted, so equal requests always produce the same bytes) and hashed, with
// the datasource ID kept as a readable prefix so keys for one datasource can
// be inspected or invalidated together. Requests must be normalized before
// keying so that equivalent requests (e.g. defaulted vs explicit row limit)
// share an entry.
func ChartDataKey(datasourceID uuid.UUID, request any) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request for cache key: %w", err)
	}
	hash := sha256.Sum256(payload)
	return fmt.Sprintf("chart:%s:%x", datasourceID, hash), nil
}

// TableMetadataKey builds a cache key for table metadata lookups.
func TableMetadataKey(tableID uuid.UUID) string {
	return fmt.Sprintf("tablemeta:%s", tableID)
}
