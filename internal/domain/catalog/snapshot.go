package catalog

import "context"

// Snapshot is the menu as of one load. It never changes after construction;
// a reload produces a new Snapshot.
type Snapshot struct {
	items []Item
	byID  map[string]int
}

// NewSnapshot copies items into a new Snapshot. When ids repeat, the first
// occurrence wins.
func NewSnapshot(items []Item) *Snapshot {
	s := &Snapshot{
		items: make([]Item, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, item := range items {
		if _, dup := s.byID[item.ID]; dup {
			continue
		}
		s.byID[item.ID] = len(s.items)
		s.items = append(s.items, item.clone())
	}
	return s
}

// LoadSnapshot lists the repository and freezes the result.
func LoadSnapshot(ctx context.Context, repo Lister) (*Snapshot, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(items), nil
}

// Lookup returns the item with the given id.
func (s *Snapshot) Lookup(id string) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i].clone(), true
}

// Items returns the items in load order.
func (s *Snapshot) Items() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.clone()
	}
	return out
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}
