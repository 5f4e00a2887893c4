package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"link_shortener/services"
)

type apiError struct {
	status  int
	message string
}

var errorTable = map[error]apiError{
	services.ErrInvalidURL:          {http.StatusBadRequest, "Invalid original link"},
	services.ErrInvalidAlias:        {http.StatusBadRequest, "Alias may contain only letters, digits, '-' and '_'"},
	services.ErrInvalidDate:         {http.StatusBadRequest, "Cannot format expires_at to date"},
	services.ErrAliasConflict:       {http.StatusBadRequest, "Custom alias already exists"},
	services.ErrNotFound:            {http.StatusNotFound, "Cannot find this short code"},
	services.ErrExpired:             {http.StatusNotFound, "Short link has expired. Use /expired_stats instead."},
	services.ErrUnauthorized:        {http.StatusForbidden, "You should log in to perform this action"},
	services.ErrForbidden:           {http.StatusForbidden, "You don't have permission to perform this action"},
	services.ErrNoResults:           {http.StatusNotFound, "Nothing found"},
	services.ErrGenerationExhausted: {http.StatusInternalServerError, "Could not allocate a short code. Try again later"},
	services.ErrTransient:           {http.StatusInternalServerError, "Something went wrong. Try again later"},
}

// redirectExpired replaces the stats mapping of ErrExpired on the redirect route.
var redirectExpired = apiError{http.StatusGone, "Short link has expired"}

func lookup(err error) apiError {
	kind := services.Kind(err)
	if e, ok := errorTable[kind]; ok {
		return e
	}
	return errorTable[services.ErrTransient]
}

func fail(c *gin.Context, err error) {
	e := lookup(err)
	if e.status >= http.StatusInternalServerError && !errors.Is(err, services.ErrTransient) {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(e.status, gin.H{"error": e.message})
}
