package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func gzipMiddlewareServer(t *testing.T, seen *string) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.POST("/echo", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		*seen = string(body)
		return c.NoContent(http.StatusOK)
	}, GzipRequestMiddleware())
	return e
}

func TestGzipRequestMiddlewareDecompresses(t *testing.T) {
	var seen string
	e := gzipMiddlewareServer(t, &seen)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(`{"ticket_ids":["5","2"]}`)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/echo", &buf)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if seen != `{"ticket_ids":["5","2"]}` {
		t.Fatalf("handler saw wrong body: %q", seen)
	}
}

func TestGzipRequestMiddlewareRejectsBadPayload(t *testing.T) {
	var seen string
	e := gzipMiddlewareServer(t, &seen)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("not gzip at all"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if seen != "" {
		t.Fatalf("handler must not run on invalid gzip, saw %q", seen)
	}
}

func TestGzipRequestMiddlewarePassthrough(t *testing.T) {
	var seen string
	e := gzipMiddlewareServer(t, &seen)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("plain body"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if seen != "plain body" {
		t.Fatalf("plain body must pass through untouched, saw %q", seen)
	}
}
