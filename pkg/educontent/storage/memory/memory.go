package memory

import (
	"context"
	"io"
	"sync"

	"github.com/tendant/edu-content/pkg/educontent"
)

// Object is a file held by the in-memory backend.
type Object struct {
	Data      []byte
	MediaType string
	FileName  string
}

// Backend is an in-memory implementation of the educontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// New creates a new in-memory storage backend. URLs take the form memory://{key}.
func New() *Backend {
	return NewWithBaseURL("memory://")
}

// NewWithBaseURL creates an in-memory backend whose URLs are baseURL+key.
func NewWithBaseURL(baseURL string) *Backend {
	return &Backend{
		objects: make(map[string]Object),
		baseURL: baseURL,
	}
}

// Put stores the object in memory
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params educontent.PutParams) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = Object{Data: data, MediaType: params.MediaType, FileName: params.FileName}
	return b.URL(key), nil
}

// Delete removes the object from memory
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return educontent.ErrFileNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[key]
	return exists, nil
}

func (b *Backend) URL(key string) string {
	return b.baseURL + key
}

// Get returns a copy of the stored object.
func (b *Backend) Get(key string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return Object{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

// Len returns the number of stored objects.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
