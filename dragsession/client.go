package dragsession

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const submitTimeout = 10 * time.Second

type orderPayload struct {
	TicketIDs []string `json:"ticket_ids"`
}

type orderAck struct {
	Success   bool   `json:"success"`
	ColumnID  string `json:"column_id"`
	ItemCount int    `json:"item_count"`
	Error     string `json:"error"`
}

// Client submits drop results to the reorder endpoint. Submissions are fire
// and forget: the board was already mutated optimistically, so a failure
// only updates the announcement text and is never rolled back. When drops
// overlap, whichever response lands last owns the announcement.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	log        *log.Logger

	mu           sync.Mutex
	announcement string
}

func NewClient(baseURL, bearerToken string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: submitTimeout},
		baseURL:    baseURL,
		log:        logger,
	}
	if bearerToken != "" {
		c.authHeader = "Bearer " + bearerToken
	}
	return c
}

// Dispatch submits the drop result in the background and returns
// immediately.
func (c *Client) Dispatch(result DropResult) {
	go c.submit(context.Background(), result)
}

// Announcement returns the latest status text for the announcement region.
func (c *Client) Announcement() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announcement
}

func (c *Client) announce(text string) {
	c.mu.Lock()
	c.announcement = text
	c.mu.Unlock()
}

func (c *Client) submit(ctx context.Context, result DropResult) {
	body, err := sonic.Marshal(orderPayload{TicketIDs: result.Order})
	if err != nil {
		c.fail(result.ColumnID, err)
		return
	}

	url := c.baseURL + "/api/strata-boards/column/" + result.ColumnID + "/order"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.fail(result.ColumnID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.fail(result.ColumnID, err)
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		c.fail(result.ColumnID, err)
		return
	}

	var ack orderAck
	if err := sonic.Unmarshal(raw, &ack); err != nil {
		c.fail(result.ColumnID, err)
		return
	}
	if resp.StatusCode != http.StatusOK || !ack.Success {
		reason := ack.Error
		if reason == "" {
			reason = resp.Status
		}
		c.fail(result.ColumnID, fmt.Errorf("reorder rejected: %s", reason))
		return
	}

	c.announce(fmt.Sprintf("Board updated (%d items)", ack.ItemCount))
}

func (c *Client) fail(columnID string, err error) {
	c.log.WithError(err).WithField("column", columnID).Warn("reorder submit failed")
	c.announce("Board update failed; the new order may not be saved")
}
