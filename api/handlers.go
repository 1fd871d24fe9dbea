package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"strata-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, cache ViewCache, auth Authenticator, notifier Notifier, logger *log.Logger) {
	svc := domain.NewReorderService(store, domain.NewRoleAuthorizer(), logger)

	e.GET("/api/boards", getBoards(store, logger))
	e.GET("/api/boards/:id", getBoardView(store, cache, auth, logger))
	e.POST("/api/strata-boards/column/:id/order", postReorder(svc, auth))
	e.POST("/api/strata-boards/ticket/:id/status", postStatus(svc, store, auth, notifier, logger))
	e.GET("/api/settings", getSettings(store, auth))
	e.PUT("/api/settings", putSettings(store, auth))
	e.GET("/api/notices/months", getNoticeMonths(store))
	e.GET("/content/:id", getContent(store, auth), RestrictAnonymous(store, auth))
	e.GET("/healthz", healthz(store))

	e.HTTPErrorHandler = RedirectingErrorHandler(e, store, auth)
}

type boardsResponse struct {
	Boards []boardListEntry `json:"boards"`
}

type monthsResponse struct {
	Months []domain.MonthBucket `json:"months"`
}

func healthz(_ Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getBoards(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		boards, err := store.FetchBoards(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		resp := boardsResponse{Boards: make([]boardListEntry, 0, len(boards))}
		for _, b := range boards {
			if !b.Published {
				continue
			}
			count, err := store.CountBoardItems(ctx, b.ID, b.TargetKind())
			if err != nil {
				// A failed count degrades the listing, not the request.
				logger.WithError(err).WithField("board", b.ID).Warn("board item count failed")
			}
			resp.Boards = append(resp.Boards, boardListEntry{
				ID:          b.ID,
				Title:       b.Title,
				Description: b.Description,
				TicketCount: count,
				URL:         "/board/" + b.ID,
			})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func getBoardView(store Storage, cache ViewCache, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		boardID := c.Param("id")
		if cache != nil {
			if view, ok := cache.LoadBoardView(ctx, boardID); ok {
				metrics.SetCacheHit(true)
				metrics.SetCardsReturned(countCards(*view))
				encodeStart := time.Now()
				err = c.JSON(http.StatusOK, view)
				metrics.ObserveEncode(time.Since(encodeStart))
				return err
			}
		}

		fetchStart := time.Now()
		board, err := store.FetchBoard(ctx, boardID)
		if err != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(err)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
			return err
		}
		if board == nil || !board.Published {
			metrics.SetErrorStage("not_found")
			err = c.JSON(http.StatusNotFound, errorResponse{Error: "board not found"})
			return err
		}
		columns, err := store.FetchColumns(ctx, board.TargetVocabulary())
		if err == nil {
			var items []domain.Item
			items, err = store.FetchBoardItems(ctx, board.ID, board.TargetKind())
			if err == nil {
				metrics.ObserveFetch(time.Since(fetchStart))

				assembleStart := time.Now()
				view := domain.AssembleBoard(*board, columns, items)
				metrics.ObserveAssemble(time.Since(assembleStart))
				if cache != nil {
					cache.StoreBoardView(ctx, view)
				}
				metrics.SetCardsReturned(countCards(view))

				encodeStart := time.Now()
				err = c.JSON(http.StatusOK, view)
				metrics.ObserveEncode(time.Since(encodeStart))
				if err != nil {
					metrics.SetErrorStage("encode_response")
				}
				return err
			}
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(err)
		err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return err
	}
}

func countCards(view domain.BoardView) int {
	n := 0
	for _, col := range view.Columns {
		n += len(col.Cards)
	}
	return n
}

func postReorder(svc domain.ReorderService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if p.Anonymous() {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		}

		var req reorderRequest
		if err := decodeBody(c.Request().Body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing or invalid ticket_ids"})
		}

		result, err := svc.ReorderColumn(c.Request().Context(), p, c.Param("id"), req.TicketIDs)
		if err != nil {
			if reason, ok := domain.IsRejected(err); ok {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: reason})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		return c.JSON(http.StatusOK, reorderResponse{
			Success:   true,
			ColumnID:  result.ColumnID,
			ItemCount: result.Processed,
		})
	}
}

func postStatus(svc domain.ReorderService, store Storage, auth Authenticator, notifier Notifier, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		p, err := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if p.Anonymous() {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		}

		var req statusRequest
		if err := decodeBody(c.Request().Body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing status_id"})
		}

		itemID := c.Param("id")
		it, err := svc.SetStatus(ctx, p, itemID, req.StatusID)
		if err != nil {
			switch {
			case err == domain.ErrNotFound:
				return c.JSON(http.StatusNotFound, errorResponse{Error: "Invalid ticket"})
			case err == domain.ErrForbidden:
				return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
			}
			if reason, ok := domain.IsRejected(err); ok {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: reason})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}

		if notifier != nil {
			notifyStatusChange(ctx, store, notifier, logger, it, req.StatusID)
		}

		return c.JSON(http.StatusOK, statusResponse{
			Success:     true,
			TicketID:    itemID,
			NewStatusID: req.StatusID,
		})
	}
}

// notifyStatusChange enqueues a notification when the item's kind is a
// configured trigger. Failures are logged; the status change already
// happened and the response stays successful.
func notifyStatusChange(ctx context.Context, store Storage, notifier Notifier, logger *log.Logger, it *domain.Item, newStatusID string) {
	settings, err := store.FetchSettings(ctx)
	if err != nil {
		logger.WithError(err).Warn("notification settings unavailable")
		return
	}
	if !settings.Notifies(it.Kind) {
		return
	}
	n := domain.Notification{
		ID:          uuid.NewString(),
		ItemID:      it.ID,
		Kind:        it.Kind,
		NewStatusID: newStatusID,
		Roles:       settings.NotifyRoles,
		Time:        time.Now().UTC(),
	}
	if err := notifier.EnqueueNotification(ctx, n); err != nil {
		logger.WithError(err).WithField("item", it.ID).Warn("notification enqueue failed")
	}
}

func getSettings(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := requireAdmin(c, auth); err != nil {
			return err
		}
		settings, err := store.FetchSettings(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func putSettings(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := requireAdmin(c, auth); err != nil {
			return err
		}
		var settings domain.Settings
		if err := decodeBody(c.Request().Body, &settings); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := store.SaveSettings(c.Request().Context(), settings); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		return c.JSON(http.StatusOK, settings)
	}
}

const adminRole = "administrator"

// requireAdmin writes the failure response itself; a non-nil return means
// the handler must stop.
func requireAdmin(c echo.Context, auth Authenticator) error {
	p, err := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	}
	if p.Anonymous() {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	}
	if !p.HasRole(adminRole) {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
	}
	return nil
}

func getNoticeMonths(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		columns, err := store.FetchColumns(ctx, domain.ColumnVocabulary)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		publishedID := ""
		for _, col := range columns {
			if col.Name == domain.PublishedColumnName {
				publishedID = col.ID
				break
			}
		}
		if publishedID == "" {
			return c.JSON(http.StatusOK, monthsResponse{Months: []domain.MonthBucket{}})
		}
		items, err := store.FetchItemsByKind(ctx, "notice")
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		return c.JSON(http.StatusOK, monthsResponse{Months: domain.MonthBuckets(items, publishedID)})
	}
}

func getContent(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		it, err := store.GetItem(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		}
		if it == nil {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
		}
		if !it.Published && p.Anonymous() {
			// Surfaced through the error handler, which may turn it into
			// a redirect for restricted kinds.
			return echo.ErrForbidden
		}
		return c.JSON(http.StatusOK, domain.BuildCard(*it))
	}
}

func decodeBody(body io.Reader, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, postBodyMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
