package middleware

import (
	"context"
	"net/http"

	"github.com/farmkit/agrorent/internal/i18n"
)

const LanguageContextKey contextKey = "lang"

// Locale negotiates the response language from the lang query parameter, the lang cookie
// and Accept-Language, in that order.
func Locale(catalog *i18n.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookie string
			if c, err := r.Cookie("lang"); err == nil {
				cookie = c.Value
			}
			lang := catalog.Negotiate(r.URL.Query().Get("lang"), cookie, r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LanguageContextKey, lang)))
		})
	}
}

// LanguageFrom returns the negotiated language, or "" outside Locale
func LanguageFrom(ctx context.Context) string {
	lang, _ := ctx.Value(LanguageContextKey).(string)
	return lang
}
