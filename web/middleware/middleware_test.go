package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/wanderlust/wanderlust/util/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMethodOverride(t *testing.T) {
	engine := gin.New()
	engine.PUT("/listings/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "put "+c.PostForm("listing[title]"))
	})
	engine.DELETE("/listings/:id", func(c *gin.Context) { c.String(http.StatusOK, "delete") })
	engine.POST("/listings/:id", func(c *gin.Context) { c.String(http.StatusOK, "post") })
	handler := MethodOverride(engine)

	tests := []struct {
		name        string
		target      string
		body        string
		contentType string
		want        string
	}{
		{"query", "/listings/1?_method=DELETE", "", "", "delete"},
		{"lowercase query", "/listings/1?_method=put", "", "", "put "},
		{"form body", "/listings/1", url.Values{"_method": {"PUT"}, "listing[title]": {"New"}}.Encode(), "application/x-www-form-urlencoded", "put New"},
		{"json body ignored", "/listings/1", `{"_method":"DELETE"}`, "application/json", "post"},
		{"unsupported method", "/listings/1?_method=GET", "", "", "post"},
		{"no override", "/listings/1", "", "", "post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestMethodOverrideOnlyFromPost(t *testing.T) {
	engine := gin.New()
	engine.GET("/listings/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") })
	handler := MethodOverride(engine)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/1?_method=DELETE", nil))
	assert.Equal(t, "get", rec.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Next()
		if err := c.Errors.Last(); err != nil {
			c.String(common.StatusCode(err.Err), err.Error())
		}
	})
	engine.POST("/login", RateLimitMiddleware(DefaultRateLimitConfig(client, 2)), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		engine.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, rateLimitMessage, rec.Body.String())

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimitDisabled(t *testing.T) {
	engine := gin.New()
	engine.POST("/login", RateLimitMiddleware(DefaultRateLimitConfig(nil, 2)), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCacheControl(t *testing.T) {
	engine := gin.New()
	assets := engine.Group("/assets", CacheControl(24*time.Hour))
	assets.GET("/app.css", func(c *gin.Context) { c.String(http.StatusOK, "body{}") })
	assets.POST("/app.css", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assets/app.css", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestDomainValidatorMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(DomainValidatorMiddleware("wanderlust.example"))
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		host string
		want int
	}{
		{"wanderlust.example", http.StatusOK},
		{"wanderlust.example:8080", http.StatusOK},
		{"Wanderlust.Example", http.StatusOK},
		{"evil.example", http.StatusForbidden},
		{"evil.example:8080", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
