package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFS = fstest.MapFS{
	"translation/translate.en_US.toml": &fstest.MapFile{Data: []byte(`
"flash.loggedOut" = "You are now logged out"
"pages.listings.show" = "{{ .Title }}"
`)},
	"translation/translate.de_DE.toml": &fstest.MapFile{Data: []byte(`
"flash.loggedOut" = "Du bist jetzt abgemeldet"
`)},
}

func serve(t *testing.T, req *http.Request, handler gin.HandlerFunc) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(LocalizerMiddleware())
	engine.GET("/", handler)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestI18n(t *testing.T) {
	require.NoError(t, InitLocalizer(testFS))

	loggedOut := func(c *gin.Context) { c.String(http.StatusOK, I18n(c, "flash.loggedOut")) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "You are now logged out", serve(t, req, loggedOut))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	assert.Equal(t, "Du bist jetzt abgemeldet", serve(t, req, loggedOut))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE")
	req.AddCookie(&http.Cookie{Name: "lang", Value: "en-US"})
	assert.Equal(t, "You are now logged out", serve(t, req, loggedOut))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "Cozy Beachfront Cottage", serve(t, req, func(c *gin.Context) {
		c.String(http.StatusOK, I18n(c, "pages.listings.show", "Title==Cozy Beachfront Cottage"))
	}))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "missing.key", serve(t, req, func(c *gin.Context) {
		c.String(http.StatusOK, I18n(c, "missing.key"))
	}))
}

func TestLocalizeWithoutLocalizer(t *testing.T) {
	assert.Equal(t, "flash.loggedOut", Localize(nil, "flash.loggedOut"))
}
