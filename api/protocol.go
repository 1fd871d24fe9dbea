package api

const postBodyMaxSize = 64 * 1024 // 64 KiB

// POST /api/strata-boards/column/:id/order request body.
type reorderRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// POST /api/strata-boards/column/:id/order response body.
type reorderResponse struct {
	Success   bool   `json:"success"`
	ColumnID  string `json:"column_id"`
	ItemCount int    `json:"item_count"`
}

// POST /api/strata-boards/ticket/:id/status request body.
type statusRequest struct {
	StatusID string `json:"status_id"`
}

// POST /api/strata-boards/ticket/:id/status response body.
type statusResponse struct {
	Success     bool   `json:"success"`
	TicketID    string `json:"ticket_id"`
	NewStatusID string `json:"new_status_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GET /api/boards response entry.
type boardListEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TicketCount int    `json:"ticket_count"`
	URL         string `json:"url"`
}
