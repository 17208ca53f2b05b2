package qrlogin

import "sync"

// CacheKey is the image cache key for a login attempt.
func CacheKey(qrcodeID string) string { return "wxacode_" + qrcodeID }

// ImageCache keeps rendered codes for the lifetime of the process. Keys are
// written once, a later Store for the same key keeps the first value.
type ImageCache interface {
	Load(key string) (string, bool)
	// Store sets key if absent and returns the value now held.
	Store(key, imageBase64 string) string
}

// MemoryImageCache is a set-once ImageCache safe for concurrent use.
type MemoryImageCache struct {
	m sync.Map
}

func NewMemoryImageCache() *MemoryImageCache { return &MemoryImageCache{} }

func (c *MemoryImageCache) Load(key string) (string, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *MemoryImageCache) Store(key, imageBase64 string) string {
	actual, _ := c.m.LoadOrStore(key, imageBase64)
	return actual.(string)
}
