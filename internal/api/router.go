package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/mw"
)

// RouterOptions configures the middleware around the handlers.
type RouterOptions struct {
	// Limiter throttles every route per client address.
	Limiter *mw.IPRateLimiter
	// SigninLimiter additionally throttles sign-in attempts.
	SigninLimiter *mw.IPRateLimiter
	// CacheTTL is how long GET responses are cached. Zero disables caching.
	CacheTTL time.Duration
	Log      *slog.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, validator mw.TokenValidator, opts RouterOptions) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(opts.Log))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/vapid_public_key", h.GetVAPIDPublicKey)

	authGroup := r.Group("/auth")
	{
		signin := []gin.HandlerFunc{h.Signin}
		if opts.SigninLimiter != nil {
			signin = append([]gin.HandlerFunc{opts.SigninLimiter.Middleware()}, signin...)
		}
		authGroup.POST("/signin", signin...)
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/signout", h.Signout)
	}

	secured := r.Group("/")
	secured.Use(mw.Authenticate(validator))
	if opts.CacheTTL > 0 {
		secured.Use(mw.Cache(cache.New(opts.CacheTTL, 2*opts.CacheTTL), opts.CacheTTL))
	}

	technicianOnly := mw.RequireRole(model.RoleTechnician)

	machines := secured.Group("/machines")
	{
		machines.GET("", h.ListMachines)
		machines.GET("/locations", h.ListLocations)
		machines.GET("/offices", h.ListOffices)
		machines.GET("/floors", h.ListFloors)
		machines.GET("/by-location-office-floor", h.ListMachinesAt)
		machines.GET("/low-supplies", h.ListLowSupplies)
		machines.GET("/maintenance-needed", h.ListMaintenanceNeeded)
		machines.GET("/machine/:machineId", h.GetMachineByMachineID)
		machines.GET("/:id", h.GetMachine)
		machines.GET("/:id/health", h.GetMachineHealth)
		machines.PUT("/:id", technicianOnly, h.UpdateMachine)
		machines.PUT("/:id/supplies", technicianOnly, h.UpdateSupplies)
	}

	subscriptions := secured.Group("/subscriptions")
	{
		subscriptions.GET("", h.GetSubscription)
		subscriptions.PUT("", h.PutSubscription)
		subscriptions.DELETE("", h.DeleteSubscription)
	}

	return r
}
