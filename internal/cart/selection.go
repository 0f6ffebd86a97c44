package cart

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Select отмечает позицию для оформления.
func (s *Store) Select(lineID int64) error {
	s.mu.Lock()
	if !s.hasLineLocked(lineID) {
		s.mu.Unlock()
		return domain.NewValidationError("line_id", "cannot select a line that is not in the cart")
	}
	s.selection[lineID] = struct{}{}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Deselect снимает отметку; отсутствующая позиция игнорируется.
func (s *Store) Deselect(lineID int64) {
	s.mu.Lock()
	delete(s.selection, lineID)
	s.mu.Unlock()

	s.notify()
}

// Toggle переключает отметку позиции.
func (s *Store) Toggle(lineID int64) error {
	s.mu.Lock()
	if _, selected := s.selection[lineID]; selected {
		delete(s.selection, lineID)
		s.mu.Unlock()
		s.notify()
		return nil
	}
	s.mu.Unlock()

	return s.Select(lineID)
}

// SelectAll отмечает все позиции корзины.
func (s *Store) SelectAll() {
	s.mu.Lock()
	for _, line := range s.lines {
		s.selection[line.ID] = struct{}{}
	}
	s.mu.Unlock()

	s.notify()
}

// ClearSelection снимает все отметки.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selection = make(map[int64]struct{})
	s.mu.Unlock()

	s.notify()
}

// IsSelected сообщает, отмечена ли позиция.
func (s *Store) IsSelected(lineID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selection[lineID]
	return ok
}

// SelectedLines возвращает обогащённые позиции, входящие в выбор.
func (s *Store) SelectedLines() []domain.EnrichedCartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]domain.EnrichedCartLine, 0, len(s.selection))
	for _, line := range s.enriched {
		if _, ok := s.selection[line.ID]; ok {
			selected = append(selected, line)
		}
	}
	return selected
}

// Total возвращает сумму qty * price по обогащённым позициям или только по выбранным.
// Пустой выбор при selectionOnly даёт 0.
func (s *Store) Total(selectionOnly bool) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if selectionOnly && len(s.selection) == 0 {
		return 0
	}

	var total int64
	for _, line := range s.enriched {
		if selectionOnly {
			if _, ok := s.selection[line.ID]; !ok {
				continue
			}
		}
		total += line.SubtotalMinor()
	}
	return total
}

func (s *Store) hasLineLocked(lineID int64) bool {
	for _, line := range s.lines {
		if line.ID == lineID {
			return true
		}
	}
	return false
}

// pruneSelectionLocked удаляет из выбора позиции, которых больше нет в корзине.
func (s *Store) pruneSelectionLocked() {
	for id := range s.selection {
		if !s.hasLineLocked(id) {
			delete(s.selection, id)
		}
	}
}

func (s *Store) selectionIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
