package middleware

import (
	"mime"
	"net/http"
	"strings"
)

const methodOverrideParam = "_method"

// MethodOverride lets HTML forms, which can only POST, reach PUT, PATCH and
// DELETE routes by sending _method in the query string or the urlencoded
// body. It wraps the whole engine because gin picks the route before any
// gin middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method := overrideMethod(r); method != "" {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	value := r.URL.Query().Get(methodOverrideParam)
	if value == "" && isURLEncoded(r) {
		if err := r.ParseForm(); err == nil {
			value = r.PostForm.Get(methodOverrideParam)
		}
	}
	switch method := strings.ToUpper(strings.TrimSpace(value)); method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return method
	}
	return ""
}

func isURLEncoded(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
