package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"link_shortener/auth"
	"link_shortener/services"
)

type visitItem struct {
	LinkID       uint       `json:"link_id"`
	UserID       *uuid.UUID `json:"user_id"`
	ShortCode    string     `json:"short_code"`
	OriginalLink string     `json:"original_link"`
	AccessedAt   time.Time  `json:"accessed_at"`
}

type queriesResponse struct {
	Status string      `json:"status"`
	Data   []visitItem `json:"data"`
}

func (h *Handler) SetPremium(c *gin.Context) {
	actor := auth.GetActor(c)
	if actor == nil {
		fail(c, services.ErrUnauthorized)
		return
	}
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be true or false"})
		return
	}

	if err := h.svc.SetPremium(c.Request.Context(), actor, status); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) AllExpired(c *gin.Context) {
	actor := auth.GetActor(c)
	cachedJSON(h, c, func(ctx context.Context) (expiredResponse, error) {
		summaries, err := h.svc.AllExpired(ctx, actor)
		if err != nil {
			return expiredResponse{}, err
		}
		return h.expiredResponse(summaries), nil
	})
}

func (h *Handler) PremiumLinkStats(c *gin.Context) {
	code := c.Param("code")
	actor := auth.GetActor(c)
	cachedJSON(h, c, func(ctx context.Context) (statsResponse, error) {
		stats, err := h.svc.PremiumLinkStats(ctx, code, actor)
		if err != nil {
			return statsResponse{}, err
		}
		return statsResponse{Status: "success", Data: stats}, nil
	})
}

func (h *Handler) Queries(c *gin.Context) {
	code := c.Param("code")
	actor := auth.GetActor(c)
	cachedJSON(h, c, func(ctx context.Context) (queriesResponse, error) {
		visits, err := h.svc.Queries(ctx, code, actor)
		if err != nil {
			return queriesResponse{}, err
		}
		return queriesResponse{Status: "success", Data: visitItems(visits)}, nil
	})
}
