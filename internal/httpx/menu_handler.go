package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func (a *API) listMenu(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q := restaurant.MenuQuery{
		ListParams: p,
		Category:   r.URL.Query().Get("category"),
		Search:     r.URL.Query().Get("search"),
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	page, err := a.Menu.List(ctx, CallerFrom(r.Context()), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, page)
}

func (a *API) getMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	item, err := a.Menu.Get(ctx, CallerFrom(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, item)
}

func (a *API) createMenuItem(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.RequireManager(); err != nil {
		a.fail(w, r, err)
		return
	}
	var in restaurant.MenuItemInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	item, err := a.Menu.Create(ctx, caller, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, item)
}

func (a *API) replaceMenuItem(w http.ResponseWriter, r *http.Request) {
	a.writeMenuItem(w, r, a.Menu.Replace)
}

func (a *API) patchMenuItem(w http.ResponseWriter, r *http.Request) {
	a.writeMenuItem(w, r, a.Menu.Patch)
}

func (a *API) writeMenuItem(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, caller restaurant.Caller, id int64, in restaurant.MenuItemInput) (restaurant.MenuItem, error)) {
	caller := CallerFrom(r.Context())
	if err := caller.RequireManager(); err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in restaurant.MenuItemInput
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	item, err := apply(ctx, caller, id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, item)
}

func (a *API) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	if err := a.Menu.Delete(ctx, CallerFrom(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	cats, err := a.Menu.Categories(ctx, CallerFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, cats)
}

type categoryReq struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.RequireManager(); err != nil {
		a.fail(w, r, err)
		return
	}
	var req categoryReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	c, err := a.Menu.CreateCategory(ctx, caller, req.Title, req.Slug)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, c)
}

func (a *API) listFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	items, err := a.Menu.Featured(ctx, CallerFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, items)
}

type featuredReq struct {
	Title string `json:"title"`
}

func (a *API) setFeatured(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.RequireManager(); err != nil {
		a.fail(w, r, err)
		return
	}
	var req featuredReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	item, err := a.Menu.SetFeatured(ctx, caller, req.Title)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, item)
}
