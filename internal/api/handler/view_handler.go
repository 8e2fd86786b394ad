package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Views lists the guarded dashboard pages by path.
var Views = map[string]string{
	"/":                     "dashboard",
	"/products":             "products",
	"/orders":               "orders",
	"/profile":              "profile",
	"/payments":             "payments",
	"/notifications":        "notifications",
	"/payment-transactions": "payment-transactions",
}

type viewResponse struct {
	View string      `json:"view"`
	User sessionUser `json:"user"`
}

// ViewHandler answers guarded page navigations with a view descriptor the
// front-end renders.
type ViewHandler struct{}

func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

// Show describes the page at the matched route for the signed-in supplier.
func (h *ViewHandler) Show(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, ok := Views[c.Path()]
	if !ok {
		return echo.ErrNotFound
	}
	return c.JSON(http.StatusOK, viewResponse{
		View: view,
		User: toSessionResponse(sess).User,
	})
}
