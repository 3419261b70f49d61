package httpx

import (
	"net/http"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type addToCartReq struct {
	MenuItem string   `json:"menuitem"`
	Quantity quantity `json:"quantity"`
}

func (a *API) listCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	lines, err := a.Cart.List(ctx, CallerFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, lines)
}

func (a *API) addToCart(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if !caller.Authenticated() {
		a.fail(w, r, restaurant.ErrUnauthorized)
		return
	}
	var req addToCartReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	line, err := a.Cart.Add(ctx, caller, req.MenuItem, int(req.Quantity))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, line)
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	n, err := a.Cart.Clear(ctx, CallerFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]int64{"deleted": n})
}
