package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Value(c)+"|"+FromContext(c.Request.Context()))
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	w := serve("abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(Header))
	assert.Equal(t, "abc-123|abc-123", w.Body.String())
}

func TestMiddlewareReplacesUnusableIDs(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("x", maxLength+1), "two words"} {
		w := serve(header)
		parts := strings.Split(w.Body.String(), "|")
		require.Len(t, parts, 2)
		_, err := uuid.Parse(parts[0])
		require.NoError(t, err, "header %q", header)
		assert.Equal(t, parts[0], parts[1])
		assert.Equal(t, parts[0], w.Header().Get(Header))
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FromContext(ctx))
	assert.Equal(t, ctx, WithValue(ctx, ""))
	assert.Equal(t, "job-7", FromContext(WithValue(ctx, "job-7")))
}
