package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"link_shortener/auth"
	"link_shortener/cache"
	"link_shortener/services"
)

type Options struct {
	BaseURL  string
	Cache    cache.Backend
	CacheTTL time.Duration
}

type Handler struct {
	svc      *services.Shortener
	issuer   *auth.Issuer
	cache    cache.Backend
	cacheTTL time.Duration
	baseURL  string
}

func New(svc *services.Shortener, issuer *auth.Issuer, opts Options) *Handler {
	return &Handler{
		svc:      svc,
		issuer:   issuer,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		baseURL:  opts.BaseURL,
	}
}

func (h *Handler) shortURL(code string) string {
	return h.baseURL + "/links/" + code
}

// cachedJSON serves the result of compute through the response cache. The
// key covers the full request and the caller, premium status included.
func cachedJSON[T any](h *Handler, c *gin.Context, compute func(ctx context.Context) (T, error)) {
	key := cache.Key(c.Request.Method, c.Request.URL.Path, c.Request.URL.Query(), cacheIdentity(auth.GetActor(c)))
	resp, err := cache.Cached(c.Request.Context(), h.cache, key, h.cacheTTL, compute)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func cacheIdentity(actor *services.Actor) string {
	if actor == nil {
		return ""
	}
	if actor.IsPremium {
		return actor.ID.String() + ":premium"
	}
	return actor.ID.String()
}
