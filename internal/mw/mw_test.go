package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubValidator maps fixed tokens to identities.
type stubValidator map[string]auth.Identity

func (s stubValidator) Validate(token string) (auth.Identity, error) {
	if token == "expired" {
		return auth.Identity{}, auth.ErrTokenExpired
	}
	id, ok := s[token]
	if !ok {
		return auth.Identity{}, auth.ErrTokenInvalid
	}
	return id, nil
}

var validator = stubValidator{
	"admin-token": {UserID: 1, Username: "admin", Role: model.RoleAdmin},
	"tech-token":  {UserID: 2, Username: "tech1", Role: model.RoleTechnician, Office: "Manhattan Office"},
	"soma-token":  {UserID: 3, Username: "tech2", Role: model.RoleTechnician, Office: "SOMA Office"},
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate(validator))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.String(http.StatusOK, id.Username)
	})
	r.PUT("/tech-only", RequireRole(model.RoleTechnician), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	testCases := []struct {
		name     string
		method   string
		path     string
		token    string
		status   int
		contains string
	}{
		{name: "Missing token", method: http.MethodGet, path: "/whoami", status: http.StatusUnauthorized, contains: "missing bearer token"},
		{name: "Unknown token", method: http.MethodGet, path: "/whoami", token: "forged", status: http.StatusUnauthorized, contains: "invalid token"},
		{name: "Expired token", method: http.MethodGet, path: "/whoami", token: "expired", status: http.StatusUnauthorized, contains: "token expired"},
		{name: "Valid token", method: http.MethodGet, path: "/whoami", token: "admin-token", status: http.StatusOK, contains: "admin"},
		{name: "Admin on technician route", method: http.MethodPut, path: "/tech-only", token: "admin-token", status: http.StatusForbidden, contains: "insufficient permissions"},
		{name: "Technician on technician route", method: http.MethodPut, path: "/tech-only", token: "tech-token", status: http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.token)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}

	t.Run("Non-bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic YWRtaW46YWRtaW4=")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Authenticate(validator), Cache(store, time.Minute))
	r.GET("/machines", func(c *gin.Context) {
		calls++
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"office": id.Office, "calls": calls})
	})
	r.PUT("/machines/1", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.PUT("/machines/2", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	first := do(r, http.MethodGet, "/machines", "tech-token")
	second := do(r, http.MethodGet, "/machines", "tech-token")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	// Another office never sees the cached response.
	other := do(r, http.MethodGet, "/machines", "soma-token")
	assert.Contains(t, other.Body.String(), "SOMA Office")
	assert.Equal(t, 2, calls)

	// A failed mutation keeps the cache.
	do(r, http.MethodPut, "/machines/2", "tech-token")
	do(r, http.MethodGet, "/machines", "tech-token")
	assert.Equal(t, 2, calls)

	// A successful mutation flushes it.
	do(r, http.MethodPut, "/machines/1", "tech-token")
	do(r, http.MethodGet, "/machines", "tech-token")
	assert.Equal(t, 3, calls)
}

func TestCache_KeysOnPathAndQuery(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate(validator), Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/:name", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("name")+c.Query("floor"))
	})

	// Requests built in-process carry no RequestURI.
	get := func(target string) *httptest.ResponseRecorder {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer tech-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "a", get("/a").Body.String())
	b := get("/b")
	assert.Equal(t, "b", b.Body.String())
	assert.Empty(t, b.Header().Get("X-Cache"))
	assert.Equal(t, "a2", get("/a?floor=2").Body.String())
	assert.Equal(t, "HIT", get("/a").Header().Get("X-Cache"))
}

func TestCache_SkipsResponsesOverlappingAWrite(t *testing.T) {
	calls := 0

	r := gin.New()
	r.Use(Authenticate(validator), Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.PUT("/machines/1", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/machines", func(c *gin.Context) {
		calls++
		if calls == 1 {
			// A write lands while this read is being served.
			do(r, http.MethodPut, "/machines/1", "tech-token")
		}
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	do(r, http.MethodGet, "/machines", "tech-token")
	second := do(r, http.MethodGet, "/machines", "tech-token")
	assert.Equal(t, 2, calls)
	assert.Empty(t, second.Header().Get("X-Cache"))

	third := do(r, http.MethodGet, "/machines", "tech-token")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "HIT", third.Header().Get("X-Cache"))
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewIPRateLimiter(rate.Limit(1), 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestIPRateLimiter_Evict(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	l.GetLimiter("10.0.0.1")
	now = now.Add(5 * time.Minute)
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	assert.Equal(t, 1, l.Evict(3*time.Minute))
	assert.Equal(t, 1, l.Len())
}
