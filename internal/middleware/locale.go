package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Brightpath/internal/utils"
)

type localeCtx struct{}

// LocaleMiddleware resolves ?lang= and Accept-Language against the supported
// locales and echoes the choice in Content-Language.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), utils.SupportedLocales, utils.DefaultLocale)
		h := w.Header()
		h.Add("Vary", "Accept-Language")
		h.Set("Content-Language", loc)
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), loc)))
	})
}

func WithLocale(ctx context.Context, loc string) context.Context {
	return context.WithValue(ctx, localeCtx{}, loc)
}

func LocaleFromContext(ctx context.Context) string {
	if loc, _ := ctx.Value(localeCtx{}).(string); loc != "" {
		return loc
	}
	return utils.DefaultLocale
}
