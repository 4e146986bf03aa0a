package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/edu-content/pkg/educontent"
)

type record struct {
	content *educontent.Content
	seq     uint64
}

// Repository implements educontent.Repository using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]*record
	seq      uint64
	now      func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		contents: make(map[uuid.UUID]*record),
		now:      time.Now,
	}
}

func (r *Repository) Create(ctx context.Context, content *educontent.Content) error {
	if content.ID == uuid.Nil {
		content.ID = uuid.New()
	}
	now := r.now().UTC()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = now
	}
	if content.UpdatedAt.IsZero() {
		content.UpdatedAt = content.CreatedAt
	}
	if content.Status == "" {
		content.Status = educontent.ContentStatusDraft
	}
	if err := content.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contents[content.ID]; exists {
		return &educontent.ValidationError{Field: "id", Reason: "already exists"}
	}

	// Store a copy to avoid external modifications
	r.seq++
	r.contents[content.ID] = &record{content: content.Clone(), seq: r.seq}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*educontent.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.contents[id]
	if !exists {
		return nil, educontent.ErrContentNotFound
	}
	return rec.content.Clone(), nil
}

func (r *Repository) List(ctx context.Context, filter educontent.Filter) ([]*educontent.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*record, 0, len(r.contents))
	for _, rec := range r.contents {
		if filter.Matches(rec.content) {
			matched = append(matched, rec)
		}
	}

	// Newest first; insertion order breaks timestamp ties
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.content.CreatedAt.Equal(b.content.CreatedAt) {
			return a.content.CreatedAt.After(b.content.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]*educontent.Content, len(matched))
	for i, rec := range matched {
		result[i] = rec.content.Clone()
	}
	return result, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch educontent.ContentPatch) (*educontent.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.contents[id]
	if !exists {
		return nil, educontent.ErrContentNotFound
	}

	updated := rec.content.Clone()
	patch.Apply(updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = r.now().UTC()

	rec.content = updated
	return updated.Clone(), nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contents[id]; !exists {
		return educontent.ErrContentNotFound
	}
	delete(r.contents, id)
	return nil
}
