package mw

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cachedResponse is a replayable copy of a successful GET response.
type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

func (r cachedResponse) replay(c *gin.Context) {
	h := c.Writer.Header()
	for k, v := range r.headers {
		h[k] = v
	}
	h.Set("X-Cache", "HIT")
	c.Writer.WriteHeader(r.status)
	c.Writer.Write(r.body)
}

// recordingWriter tees the response body into a buffer.
type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func succeeded(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// cacheKey scopes cached responses to the caller, since two callers may see
// different machines and subscriptions for the same URI.
func cacheKey(c *gin.Context) string {
	scope := "-"
	if identity, ok := IdentityFrom(c); ok {
		scope = fmt.Sprintf("%d|%s|%s", identity.UserID, identity.Role, identity.Office)
	}
	return scope + "|" + c.Request.URL.RequestURI()
}

// Cache serves repeated GET requests from responses, keyed per caller and URI.
// Any other request that succeeds flushes every entry, and a GET that was
// running across such a flush is not stored. It must run after Authenticate.
func Cache(responses *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	var (
		mu         sync.Mutex
		generation uint64
	)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if succeeded(c.Writer.Status()) {
				mu.Lock()
				generation++
				responses.Flush()
				mu.Unlock()
			}
			return
		}

		key := cacheKey(c)
		if hit, ok := responses.Get(key); ok {
			hit.(cachedResponse).replay(c)
			c.Abort()
			return
		}

		mu.Lock()
		started := generation
		mu.Unlock()

		rw := &recordingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw
		c.Next()

		if status := rw.Status(); succeeded(status) {
			mu.Lock()
			if generation == started {
				responses.Set(key, cachedResponse{
					status:  status,
					headers: rw.Header().Clone(),
					body:    rw.body.Bytes(),
				}, ttl)
			}
			mu.Unlock()
		}
	}
}
