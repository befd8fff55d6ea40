package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://push.example.com/send/abc123"

func TestPutSubscription(t *testing.T) {
	s := newTestServer(t, nil)
	tech1 := s.signin("tech1", "password")
	admin := s.signin("admin", "admin123")

	testCases := []struct {
		name   string
		token  string
		body   any
		status int
		want   string
	}{
		{
			name:   "Empty body",
			token:  tech1,
			body:   nil,
			status: http.StatusBadRequest,
			want:   `{"error":"invalid request"}`,
		},
		{
			name:   "Missing keys",
			token:  tech1,
			body:   gin.H{"endpoint": testEndpoint},
			status: http.StatusBadRequest,
			want:   `{"error":"p256dh is required"}`,
		},
		{
			name:   "Technician",
			token:  tech1,
			body:   gin.H{"endpoint": testEndpoint, "p256dh": "key", "auth": "secret"},
			status: http.StatusCreated,
			want:   `{"endpoint":"` + testEndpoint + `","office":"Manhattan Office","allOffices":false}`,
		},
		{
			name:   "Admin",
			token:  admin,
			body:   gin.H{"endpoint": testEndpoint + "-admin", "p256dh": "key", "auth": "secret"},
			status: http.StatusCreated,
			want:   `{"endpoint":"` + testEndpoint + `-admin","office":"","allOffices":true}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/subscriptions", tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.want, w.Body.String())
		})
	}
}

func TestGetAndDeleteSubscription(t *testing.T) {
	s := newTestServer(t, nil)
	tech1 := s.signin("tech1", "password")
	tech2 := s.signin("tech2", "password")
	getPath := "/subscriptions?endpoint=" + url.QueryEscape(testEndpoint)

	w := s.do(http.MethodPut, "/subscriptions", tech1, gin.H{"endpoint": testEndpoint, "p256dh": "key", "auth": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, getPath, tech1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"endpoint":"`+testEndpoint+`","office":"Manhattan Office","allOffices":false}`, w.Body.String())

	w = s.do(http.MethodGet, getPath, tech2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"subscription not found"}`, w.Body.String())

	// Another user cannot re-register the endpoint as their own.
	w = s.do(http.MethodPut, "/subscriptions", tech2, gin.H{"endpoint": testEndpoint, "p256dh": "other", "auth": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"subscription belongs to another user"}`, w.Body.String())

	w = s.do(http.MethodGet, getPath, tech1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"endpoint":"`+testEndpoint+`","office":"Manhattan Office","allOffices":false}`, w.Body.String())

	w = s.do(http.MethodGet, "/subscriptions", tech1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"endpoint is required"}`, w.Body.String())

	w = s.do(http.MethodDelete, "/subscriptions", tech2, gin.H{"endpoint": testEndpoint})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/subscriptions", tech1, gin.H{"endpoint": testEndpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, getPath, tech1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := s.do(http.MethodGet, "/vapid_public_key", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"push notifications are not configured"}`, w.Body.String())
	})

	t.Run("Configured", func(t *testing.T) {
		s := newTestServer(t, &webpush.Options{VAPIDPublicKey: "public-key"})
		w := s.do(http.MethodGet, "/vapid_public_key", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())
	})
}
