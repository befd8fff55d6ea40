package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

type subscriptionResponse struct {
	Endpoint   string `json:"endpoint"`
	Office     string `json:"office"`
	AllOffices bool   `json:"allOffices"`
}

// PutSubscription handles the creation or replacement of a subscription.
// Technicians receive alerts for their own office, administrators for every office.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id, ok := h.identity(c)
	if !ok {
		return
	}

	subscription := model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256DH:     req.P256DH,
		Auth:       req.Auth,
		UserID:     id.UserID,
		Office:     id.Office,
		AllOffices: id.IsAdmin(),
	}

	if err := h.subs.Upsert(c.Request.Context(), &subscription); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "subscription belongs to another user"})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subscriptionResponse{
		Endpoint:   subscription.Endpoint,
		Office:     subscription.Office,
		AllOffices: subscription.AllOffices,
	})
}

// ownSubscription loads the subscription at endpoint if it belongs to the caller.
func (h *Handler) ownSubscription(c *gin.Context, endpoint string) (*model.PushSubscription, bool) {
	id, ok := h.identity(c)
	if !ok {
		return nil, false
	}

	sub, err := h.subs.FindByEndpoint(c.Request.Context(), endpoint)
	if err == nil && sub.UserID != id.UserID {
		err = store.ErrNotFound
	}
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return nil, false
	}
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return sub, true
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub, ok := h.ownSubscription(c, req.Endpoint)
	if !ok {
		return
	}

	if err := h.subs.Delete(c.Request.Context(), sub.Endpoint); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		badRequest(c, "endpoint is required")
		return
	}

	sub, ok := h.ownSubscription(c, endpoint)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, subscriptionResponse{
		Endpoint:   sub.Endpoint,
		Office:     sub.Office,
		AllOffices: sub.AllOffices,
	})
}

// GetVAPIDPublicKey returns the application server key a browser needs
// before it can subscribe.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
