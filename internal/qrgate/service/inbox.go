package service

import (
	"slices"
	"sync"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

// Inbox keeps the newest broadcasts a station received, capped at size.
// It lives in memory only.
type Inbox struct {
	mu    sync.Mutex
	size  int
	items []types.InboxItem
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 50
	}
	return &Inbox{size: size}
}

func (b *Inbox) Push(item types.InboxItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = slices.Insert(b.items, 0, item)
	if len(b.items) > b.size {
		b.items = b.items[:b.size]
	}
}

// List returns items newest first.
func (b *Inbox) List() []types.InboxItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.InboxItem, len(b.items))
	copy(out, b.items)
	return out
}
