package domain

import "sort"

// BoardView is the assembled read model for a board page.
type BoardView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Columns     []ColumnView `json:"columns"`
	// CacheTags names every entity the view depends on so cached copies
	// can be invalidated when any of them changes.
	CacheTags []string `json:"-"`
}

// ColumnView is one bucket of the board view.
type ColumnView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"tickets"`
}

// AssembleBoard buckets items into the board's resolved columns. Items are
// sorted by weight (when the kind supports one) then creation time, both
// ascending. An item whose status points outside the resolved column set is
// dropped without error.
func AssembleBoard(b Board, columns []Column, items []Item) BoardView {
	resolved := ResolveColumns(b, columns)

	hasWeight := KindOf(b.TargetKind()).HasWeight
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if hasWeight && sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight < sorted[j].Weight
		}
		return sorted[i].Created.Before(sorted[j].Created)
	})

	view := BoardView{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Columns:     make([]ColumnView, len(resolved)),
		CacheTags:   []string{"board:" + b.ID},
	}
	index := make(map[string]int, len(resolved))
	for i, c := range resolved {
		view.Columns[i] = ColumnView{ID: c.ID, Name: c.Name, Cards: []Card{}}
		index[c.ID] = i
	}

	for _, it := range sorted {
		if it.StatusID == "" {
			continue
		}
		i, ok := index[it.StatusID]
		if !ok {
			continue
		}
		view.Columns[i].Cards = append(view.Columns[i].Cards, BuildCard(it))
		view.CacheTags = append(view.CacheTags, "item:"+it.ID)
	}
	return view
}
