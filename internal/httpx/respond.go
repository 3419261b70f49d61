package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type okBody struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	OK    bool        `json:"ok"`
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, okBody{OK: true, Data: data})
}

func statusOf(k restaurant.Kind) int {
	switch k {
	case restaurant.KindValidation:
		return http.StatusBadRequest
	case restaurant.KindUnauthorized:
		return http.StatusUnauthorized
	case restaurant.KindForbidden:
		return http.StatusForbidden
	case restaurant.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail writes err with the status of its kind. Storage failures are logged
// and reach the client only as a generic message.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := restaurant.KindOf(err)
	if kind == restaurant.KindStorage {
		a.Log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, statusOf(kind), errorBody{
		Error: errorDetail{Kind: kind.String(), Message: restaurant.PublicMessage(err)},
	})
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error: errorDetail{Kind: "rate_limited", Message: "too many requests"},
	})
}

// decode reads a JSON body into v. Malformed input is a validation error.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		var re *restaurant.Error
		if errors.As(err, &re) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return restaurant.Errorf(restaurant.KindValidation, "request body is empty")
		}
		return restaurant.Errorf(restaurant.KindValidation, "invalid JSON body")
	}
	return nil
}

// pathID parses a numeric URL parameter; anything else is an unknown resource.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, restaurant.Errorf(restaurant.KindNotFound, "not found")
	}
	return id, nil
}

func listParams(r *http.Request) (restaurant.ListParams, error) {
	q := r.URL.Query()
	var p restaurant.ListParams
	var err error
	if p.Page, err = queryInt(q.Get("page")); err != nil {
		return p, restaurant.Errorf(restaurant.KindValidation, "page must be a number")
	}
	if p.PerPage, err = queryInt(q.Get("per_page")); err != nil {
		return p, restaurant.Errorf(restaurant.KindValidation, "per_page must be a number")
	}
	p.Ordering = q.Get("ordering")
	return p, nil
}

func queryInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// quantity accepts a JSON number or a numeric string.
type quantity int

func (q *quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return restaurant.Errorf(restaurant.KindValidation, "quantity must be an integer")
	}
	*q = quantity(n)
	return nil
}
