package httpx

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/little-lemon-api/internal/auth"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type ctxKey int

const callerKey ctxKey = iota

// CallerFrom returns the authenticated caller, or the zero Caller for anonymous requests.
func CallerFrom(ctx context.Context) restaurant.Caller {
	c, _ := ctx.Value(callerKey).(restaurant.Caller)
	return c
}

// authenticate resolves a bearer access token into a Caller. Requests without
// a token continue anonymously; a bad token is rejected outright.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found || token == "" {
			a.fail(w, r, restaurant.Errorf(restaurant.KindUnauthorized, "missing or invalid token"))
			return
		}
		claims, err := a.Tokens.Verify(token, auth.TokenAccess)
		if err != nil {
			a.fail(w, r, restaurant.Errorf(restaurant.KindUnauthorized, "invalid token"))
			return
		}
		id, err := claims.UserID()
		if err != nil {
			a.fail(w, r, restaurant.Errorf(restaurant.KindUnauthorized, "invalid token"))
			return
		}
		c, err := a.Users.Caller(r.Context(), id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, c)))
	})
}

// rateLimit counts requests per user, or per client IP when anonymous.
// Limiter errors let the request through.
func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		identity, limit := "ip:"+clientIP(r), a.RateAnonPerMin
		if c := CallerFrom(r.Context()); c.Authenticated() {
			identity, limit = "user:"+strconv.FormatInt(c.User.ID, 10), a.RateUserPerMin
		}
		allowed, err := a.Limiter.Allow(r.Context(), identity, limit)
		if err != nil {
			a.Log.WarnContext(r.Context(), "rate limiter unavailable", "identity", identity, "error", err)
		}
		if !allowed && err == nil {
			tooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
