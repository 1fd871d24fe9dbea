package domain

import (
	"time"
)

// Item is a unit of work shown as a card on a board.
type Item struct {
	ID           string
	Kind         string
	Title        string
	BoardID      string
	StatusID     string
	Weight       int
	AuthorID     string
	AssigneeID   string
	CommentCount int
	FileCount    int
	Published    bool
	Created      time.Time
	// Fields holds the kind-specific optional field values keyed by field
	// name (description variants, deadlines, type references).
	Fields map[string]string
}

// KindSpec describes which board attributes a content kind carries.
type KindSpec struct {
	HasStatus bool
	HasWeight bool
}

var kinds = map[string]KindSpec{
	"ticket":    {HasStatus: true, HasWeight: true},
	"notice":    {HasStatus: true},
	"violation": {HasStatus: true},
}

// KindOf returns the spec for a content kind. Unknown kinds carry neither
// a status nor a weight attribute.
func KindOf(name string) KindSpec {
	return kinds[name]
}

const (
	descriptionMaxLen = 200
	ellipsis          = "..."
)

// Field probe order per projected card attribute. Each list is tried in
// order and the first non-empty value wins.
var (
	descriptionFields = []string{"ticket_description", "notice_description", "violation_details", "body"}
	deadlineFields    = []string{"ticket_deadline", "notice_deadline"}
	typeFields        = []string{"ticket_type", "notice_type"}
)

func firstField(fields map[string]string, names []string) (string, bool) {
	for _, name := range names {
		if v, ok := fields[name]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Description resolves the card description, truncated for display. The
// stored field value is never modified.
func (it Item) Description() string {
	v, ok := firstField(it.Fields, descriptionFields)
	if !ok {
		return ""
	}
	if len(v) > descriptionMaxLen {
		return v[:descriptionMaxLen] + ellipsis
	}
	return v
}

// Deadline resolves the card deadline, if any field carries one.
func (it Item) Deadline() *time.Time {
	v, ok := firstField(it.Fields, deadlineFields)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// TypeID resolves the card's type classification reference, if any.
func (it Item) TypeID() string {
	v, _ := firstField(it.Fields, typeFields)
	return v
}

// Card is the display projection of an item.
type Card struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	TypeID       string     `json:"type_id,omitempty"`
	AssigneeID   string     `json:"assigned_to,omitempty"`
	CommentCount int        `json:"comment_count"`
	FileCount    int        `json:"file_count"`
	Created      time.Time  `json:"created"`
	URL          string     `json:"url"`
}

// BuildCard projects an item into its card representation.
func BuildCard(it Item) Card {
	return Card{
		ID:           it.ID,
		Title:        it.Title,
		Description:  it.Description(),
		Deadline:     it.Deadline(),
		TypeID:       it.TypeID(),
		AssigneeID:   it.AssigneeID,
		CommentCount: it.CommentCount,
		FileCount:    it.FileCount,
		Created:      it.Created,
		URL:          "/content/" + it.ID,
	}
}
