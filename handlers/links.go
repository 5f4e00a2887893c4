package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"link_shortener/auth"
	"link_shortener/metrics"
	"link_shortener/models"
	"link_shortener/services"
)

type CreateLinkRequest struct {
	OriginalLink string `json:"original_link"`
	CustomAlias  string `json:"custom_alias"`
	ExpiresAt    string `json:"expires_at"`
}

type shortURLItem struct {
	ShortURL string `json:"short_url"`
}

type searchResponse struct {
	Status string         `json:"status"`
	Data   []shortURLItem `json:"data"`
}

type expiredItem struct {
	ShortURL     string     `json:"short_url"`
	OriginalURL  string     `json:"original_url"`
	CreatedAt    time.Time  `json:"created_at"`
	Clicks       int64      `json:"clicks"`
	LastAccessed *time.Time `json:"last_accessed"`
}

type expiredResponse struct {
	Status string        `json:"status"`
	Data   []expiredItem `json:"data"`
}

type statsResponse struct {
	Status string             `json:"status"`
	Data   services.LinkStats `json:"data"`
}

const qrSize = 256

func (h *Handler) Shorten(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.svc.Shorten(c.Request.Context(), services.CreateParams{
		OriginalURL: req.OriginalLink,
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
	}, auth.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	metrics.LinksCreated.Inc()

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"short_url": h.shortURL(link.ShortCode),
	})
}

func (h *Handler) Search(c *gin.Context) {
	originalURL := c.Query("original_url")
	cachedJSON(h, c, func(ctx context.Context) (searchResponse, error) {
		links, err := h.svc.Search(ctx, originalURL)
		if err != nil {
			return searchResponse{}, err
		}
		data := make([]shortURLItem, 0, len(links))
		for _, l := range links {
			data = append(data, shortURLItem{ShortURL: h.shortURL(l.ShortCode)})
		}
		return searchResponse{Status: "success", Data: data}, nil
	})
}

func (h *Handler) MyExpired(c *gin.Context) {
	actor := auth.GetActor(c)
	cachedJSON(h, c, func(ctx context.Context) (expiredResponse, error) {
		summaries, err := h.svc.MyExpired(ctx, actor)
		if err != nil {
			return expiredResponse{}, err
		}
		return h.expiredResponse(summaries), nil
	})
}

func (h *Handler) Redirect(c *gin.Context) {
	link, err := h.svc.Redirect(c.Request.Context(), c.Param("code"), auth.GetActor(c))
	switch {
	case err == nil:
		metrics.Redirects.WithLabelValues("ok").Inc()
		c.Redirect(http.StatusTemporaryRedirect, link.OriginalURL)
	case errors.Is(err, services.ErrExpired):
		metrics.Redirects.WithLabelValues("expired").Inc()
		c.JSON(redirectExpired.status, gin.H{"error": redirectExpired.message})
	case errors.Is(err, services.ErrNotFound):
		metrics.Redirects.WithLabelValues("not_found").Inc()
		fail(c, err)
	default:
		metrics.Redirects.WithLabelValues("error").Inc()
		fail(c, err)
	}
}

func (h *Handler) LinkStats(c *gin.Context) {
	code := c.Param("code")
	actor := auth.GetActor(c)
	cachedJSON(h, c, func(ctx context.Context) (statsResponse, error) {
		stats, err := h.svc.LinkStats(ctx, code, actor)
		if err != nil {
			return statsResponse{}, err
		}
		return statsResponse{Status: "success", Data: stats}, nil
	})
}

func (h *Handler) Rename(c *gin.Context) {
	link, err := h.svc.Rename(c.Request.Context(), c.Param("code"), c.Query("new_alias"), auth.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Short url updated",
		"short_url": h.shortURL(link.ShortCode),
	})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("code"), auth.GetActor(c)); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Short url deleted",
	})
}

// QR renders the short URL of code as a PNG. It neither records an access
// nor renews the link.
func (h *Handler) QR(c *gin.Context) {
	link, err := h.svc.Links.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}

	png, err := qrcode.Encode(h.shortURL(link.ShortCode), qrcode.Medium, qrSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) expiredResponse(summaries []services.ExpiredSummary) expiredResponse {
	data := make([]expiredItem, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, expiredItem{
			ShortURL:     h.shortURL(s.ShortCode),
			OriginalURL:  s.OriginalURL,
			CreatedAt:    s.CreatedAt,
			Clicks:       s.Clicks,
			LastAccessed: s.LastAccessed,
		})
	}
	return expiredResponse{Status: "success", Data: data}
}

func visitItems(visits []models.Visit) []visitItem {
	items := make([]visitItem, 0, len(visits))
	for _, v := range visits {
		items = append(items, visitItem{
			LinkID:       v.LinkID,
			UserID:       v.UserID,
			ShortCode:    v.ShortCode,
			OriginalLink: v.OriginalURL,
			AccessedAt:   v.AccessedAt,
		})
	}
	return items
}
