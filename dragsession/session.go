package dragsession

import "errors"

var (
	// ErrNotDragging is returned by gestures that require an active drag.
	ErrNotDragging = errors.New("no drag in progress")

	// ErrAlreadyDragging is returned by Grab while a drag is active.
	ErrAlreadyDragging = errors.New("drag already in progress")

	// ErrUnknownCard is returned when the grabbed card is on no column.
	ErrUnknownCard = errors.New("unknown card")

	// ErrUnknownColumn is returned when hovering over a column the board
	// does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// Column is one ordered list of card ids on the client-side board model.
type Column struct {
	ID    string
	Cards []string
}

// Board is the client-side mirror of a rendered board. Sessions mutate it
// optimistically on drop, before the server acknowledges anything.
type Board struct {
	Columns []Column
}

func (b *Board) column(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// Counts returns the per-column card counts in the board's current order.
func (b *Board) Counts() map[string]int {
	counts := make(map[string]int, len(b.Columns))
	for _, col := range b.Columns {
		counts[col.ID] = len(col.Cards)
	}
	return counts
}

// DropResult describes an applied drop: the destination column, the full
// card order to submit for it, and the recomputed per-column counts.
type DropResult struct {
	ColumnID string
	Order    []string
	Counts   map[string]int
}

type state int

const (
	idle state = iota
	dragging
)

// Session is the single-gesture drag state machine. One card at a time: a
// grab while another drag is active is an error, mirroring the native
// gesture model. Hovering repositions a placeholder; Drop applies the move
// to the board and reports what to submit; Cancel leaves the board as it
// was.
type Session struct {
	board *Board

	st        state
	cardID    string
	sourceCol string

	hovered   bool
	targetCol string
	targetIdx int
}

func NewSession(board *Board) *Session {
	return &Session{board: board}
}

// Dragging reports whether a gesture is in progress.
func (s *Session) Dragging() bool { return s.st == dragging }

// Grab starts a drag on the given card.
func (s *Session) Grab(cardID string) error {
	if s.st != idle {
		return ErrAlreadyDragging
	}
	for _, col := range s.board.Columns {
		for _, id := range col.Cards {
			if id == cardID {
				s.st = dragging
				s.cardID = cardID
				s.sourceCol = col.ID
				s.hovered = false
				return nil
			}
		}
	}
	return ErrUnknownCard
}

// HoverAt repositions the placeholder inside the hovered column. The
// midpoints are the vertical midpoints of that column's cards in display
// order, with the dragged card excluded; the caller owns the geometry.
func (s *Session) HoverAt(columnID string, pointerY float64, midpoints []float64) error {
	if s.st != dragging {
		return ErrNotDragging
	}
	if s.board.column(columnID) == nil {
		return ErrUnknownColumn
	}
	s.hovered = true
	s.targetCol = columnID
	s.targetIdx = InsertionIndex(pointerY, midpoints)
	return nil
}

// Drop ends the gesture and applies the move optimistically: the card takes
// the placeholder's position, or goes to the end of its own column when the
// placeholder was never placed. The returned order is the destination
// column's complete card list, dropped card included.
func (s *Session) Drop() (DropResult, error) {
	if s.st != dragging {
		return DropResult{}, ErrNotDragging
	}
	targetID, targetIdx := s.targetCol, s.targetIdx
	if !s.hovered {
		targetID = s.sourceCol
		targetIdx = len(s.board.column(s.sourceCol).Cards) - 1
	}

	source := s.board.column(s.sourceCol)
	source.Cards = removeCard(source.Cards, s.cardID)

	target := s.board.column(targetID)
	if targetIdx > len(target.Cards) {
		targetIdx = len(target.Cards)
	}
	target.Cards = insertCard(target.Cards, targetIdx, s.cardID)

	s.reset()

	order := make([]string, len(target.Cards))
	copy(order, target.Cards)
	return DropResult{ColumnID: targetID, Order: order, Counts: s.board.Counts()}, nil
}

// Cancel ends the gesture without touching the board.
func (s *Session) Cancel() error {
	if s.st != dragging {
		return ErrNotDragging
	}
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.st = idle
	s.cardID = ""
	s.sourceCol = ""
	s.hovered = false
	s.targetCol = ""
	s.targetIdx = 0
}

func removeCard(cards []string, id string) []string {
	for i, c := range cards {
		if c == id {
			return append(cards[:i], cards[i+1:]...)
		}
	}
	return cards
}

func insertCard(cards []string, idx int, id string) []string {
	cards = append(cards, "")
	copy(cards[idx+1:], cards[idx:])
	cards[idx] = id
	return cards
}
