package gallery

import (
	"context"
	"sort"
	"sync"
)

// Deleter removes photos by id, reporting which ones went through.
type Deleter interface {
	DeletePhotos(ctx context.Context, ids []string) ([]string, error)
}

// Selection is the multi-select state of a grid. While selection mode is
// off the set is always empty.
type Selection struct {
	mu     sync.Mutex
	active bool
	ids    map[string]struct{}
}

// NewSelection creates an inactive selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Active reports whether selection mode is on.
func (s *Selection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ToggleMode switches selection mode. Leaving it clears the selection.
func (s *Selection) ToggleMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.exit()
	} else {
		s.active = true
	}
	return s.active
}

// Exit leaves selection mode and clears the selection.
func (s *Selection) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exit()
}

// Enter turns selection mode on with id selected, as a long press does.
func (s *Selection) Enter(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = true
	s.ids[id] = struct{}{}
}

// Toggle selects or deselects id and returns whether it is now selected.
// Outside selection mode it does nothing.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Count returns the number of selected photos.
func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs()
}

// DeleteSelected deletes every selected photo. When all deletes succeed
// selection mode is left; otherwise the ids that failed stay selected so
// the user can retry.
func (s *Selection) DeleteSelected(ctx context.Context, d Deleter) ([]string, error) {
	s.mu.Lock()
	ids := s.sortedIDs()
	s.mu.Unlock()

	if len(ids) == 0 {
		s.Exit()
		return nil, nil
	}

	deleted, err := d.DeletePhotos(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range deleted {
		delete(s.ids, id)
	}
	if err == nil {
		s.exit()
	}
	return deleted, err
}

// Retain drops selected ids that are no longer in the collection.
func (s *Selection) Retain(existing []string) {
	keep := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

func (s *Selection) exit() {
	s.active = false
	clear(s.ids)
}

func (s *Selection) sortedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
