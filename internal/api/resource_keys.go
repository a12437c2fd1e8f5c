package api

import (
	"strings"
	"sync"
)

// ResourceKeyHeader is sent with requests for link-shared items
const ResourceKeyHeader = "X-Goog-Drive-Resource-Keys"

// ResourceKeyManager remembers resource keys seen in listings for the
// duration of one run, so later metadata, download and export requests for
// link-shared items can present them.
type ResourceKeyManager struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewResourceKeyManager creates a new resource key manager
func NewResourceKeyManager() *ResourceKeyManager {
	return &ResourceKeyManager{
		cache: make(map[string]string),
	}
}

// AddKey adds a resource key to the cache
func (m *ResourceKeyManager) AddKey(fileID, resourceKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[fileID] = resourceKey
}

// GetKey retrieves a resource key from the cache
func (m *ResourceKeyManager) GetKey(fileID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.cache[fileID]
	return key, ok
}

// BuildHeader builds the X-Goog-Drive-Resource-Keys header value
func (m *ResourceKeyManager) BuildHeader(fileIDs []string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pairs []string
	for _, id := range fileIDs {
		if key, ok := m.cache[id]; ok {
			pairs = append(pairs, id+"/"+key)
		}
	}
	return strings.Join(pairs, ",")
}

// UpdateFromAPIResponse records a key returned by the API, ignoring empty ones
func (m *ResourceKeyManager) UpdateFromAPIResponse(fileID, resourceKey string) {
	if resourceKey != "" {
		m.AddKey(fileID, resourceKey)
	}
}
