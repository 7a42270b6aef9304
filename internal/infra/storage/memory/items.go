package memory

import (
	"context"
	"sync"

	domainitems "rentilia/internal/domain/items"
)

type ItemRepository struct {
	mu    sync.RWMutex
	items map[domainitems.ItemID]*domainitems.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domainitems.ItemID]*domainitems.Item)}
}

func (r *ItemRepository) ByID(_ context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainitems.ErrItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *ItemRepository) Save(_ context.Context, item *domainitems.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *item
	r.items[item.ID] = &clone
	return nil
}
