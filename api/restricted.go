package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const frontPagePath = "/"

// RestrictAnonymous redirects anonymous visitors away from content whose
// kind is in the restricted list, before the handler runs. Authenticated
// requests and unrestricted kinds pass through untouched.
func RestrictAnonymous(store Storage, auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil || !p.Anonymous() {
				return next(c)
			}
			if restrictedItem(c, store) {
				return c.Redirect(http.StatusSeeOther, frontPagePath)
			}
			return next(c)
		}
	}
}

// RedirectingErrorHandler wraps Echo's default error handler. A 403 raised
// for an anonymous request targeting restricted content becomes the same
// front-page redirect the middleware issues, so both interception points
// behave identically.
func RedirectingErrorHandler(e *echo.Echo, store Storage, auth Authenticator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusForbidden && !c.Response().Committed {
			p, authErr := auth.PrincipalFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if authErr == nil && p.Anonymous() && restrictedItem(c, store) {
				if rerr := c.Redirect(http.StatusSeeOther, frontPagePath); rerr == nil {
					return
				}
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// restrictedItem resolves the :id route parameter to an item and checks its
// kind against the restricted list. Lookup failures fail open; restriction
// is an access veneer, not the authorization layer.
func restrictedItem(c echo.Context, store Storage) bool {
	id := c.Param("id")
	if id == "" {
		return false
	}
	ctx := c.Request().Context()
	it, err := store.GetItem(ctx, id)
	if err != nil || it == nil {
		return false
	}
	settings, err := store.FetchSettings(ctx)
	if err != nil {
		return false
	}
	return settings.Restricted(it.Kind)
}
