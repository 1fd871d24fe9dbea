package domain

import (
	"sort"
	"time"
)

const (
	// BoardKind is the content kind of board aggregates themselves.
	BoardKind = "board"

	// DefaultItemKind is assumed when a board does not configure one.
	DefaultItemKind = "ticket"

	// ColumnVocabulary is the canonical vocabulary column terms belong to.
	ColumnVocabulary = "board_column"

	// LegacyColumnVocabulary is the fixed vocabulary of the original ticket
	// boards, still accepted wherever a column's vocabulary is validated.
	LegacyColumnVocabulary = "ticket_column"
)

// Board groups items of one kind into ordered columns.
type Board struct {
	ID          string
	Title       string
	Description string
	// ItemKind is the content kind shown on this board; empty means
	// DefaultItemKind.
	ItemKind string
	// Vocabulary the board's columns are drawn from; empty means
	// ColumnVocabulary.
	Vocabulary string
	// ColumnIDs is an explicit ordered column selection. When empty the
	// board shows every column of its vocabulary in weight order.
	ColumnIDs []string
	Published bool
	Created   time.Time
}

// TargetKind returns the item kind this board displays.
func (b Board) TargetKind() string {
	if b.ItemKind == "" {
		return DefaultItemKind
	}
	return b.ItemKind
}

// TargetVocabulary returns the column vocabulary this board draws from.
func (b Board) TargetVocabulary() string {
	if b.Vocabulary == "" {
		return ColumnVocabulary
	}
	return b.Vocabulary
}

// Column is a named status bucket with a display weight.
type Column struct {
	ID         string
	Name       string
	Vocabulary string
	Weight     int
}

// IsColumnVocabulary reports whether v names a vocabulary whose terms are
// valid reorder/status targets.
func IsColumnVocabulary(v string) bool {
	return v == ColumnVocabulary || v == LegacyColumnVocabulary
}

// ResolveColumns determines the ordered column set for a board. An explicit
// selection wins and keeps its own order; otherwise all columns of the
// board's vocabulary are used, sorted by ascending weight.
func ResolveColumns(b Board, all []Column) []Column {
	byID := make(map[string]Column, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	if len(b.ColumnIDs) > 0 {
		resolved := make([]Column, 0, len(b.ColumnIDs))
		for _, id := range b.ColumnIDs {
			if c, ok := byID[id]; ok {
				resolved = append(resolved, c)
			}
		}
		if len(resolved) > 0 {
			return resolved
		}
	}

	vocab := b.TargetVocabulary()
	resolved := make([]Column, 0, len(all))
	for _, c := range all {
		if c.Vocabulary == vocab {
			resolved = append(resolved, c)
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Weight < resolved[j].Weight })
	return resolved
}
