package api

import (
	"log/slog"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/fleet"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	issuer  *auth.Issuer
	engine  *access.Engine
	fleet   *fleet.Service
	subs    store.SubscriptionStore
	webpush *webpush.Options
	log     *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(issuer *auth.Issuer, engine *access.Engine, fleetSvc *fleet.Service, subs store.SubscriptionStore, webpushOptions *webpush.Options, log *slog.Logger) *Handler {
	return &Handler{
		issuer:  issuer,
		engine:  engine,
		fleet:   fleetSvc,
		subs:    subs,
		webpush: webpushOptions,
		log:     log,
	}
}
