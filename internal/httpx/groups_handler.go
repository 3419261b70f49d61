package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type usernameReq struct {
	Username string `json:"username"`
}

func (a *API) registerGroup(r chi.Router, path string, kind restaurant.GroupKind) {
	r.Get(path, a.groupMembers(kind))
	r.Post(path, a.groupChange(kind, true))
	r.Delete(path, a.groupChange(kind, false))
	r.Get(path+"/{username}", a.groupMember(kind))
	r.Delete(path+"/{username}", a.groupChange(kind, false))
}

func (a *API) groupMembers(kind restaurant.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := a.ctx(r)
		defer cancel()
		users, err := a.Groups.Members(ctx, CallerFrom(r.Context()), kind)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ok(w, http.StatusOK, users)
	}
}

func (a *API) groupMember(kind restaurant.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := a.ctx(r)
		defer cancel()
		u, err := a.Groups.Member(ctx, CallerFrom(r.Context()), kind, chi.URLParam(r, "username"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ok(w, http.StatusOK, u)
	}
}

// groupChange takes the username from the path when present, else from the body.
func (a *API) groupChange(kind restaurant.GroupKind, add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CallerFrom(r.Context())
		if err := caller.RequireManager(); err != nil {
			a.fail(w, r, err)
			return
		}
		username := chi.URLParam(r, "username")
		if username == "" {
			var req usernameReq
			if err := decode(r, &req); err != nil {
				a.fail(w, r, err)
				return
			}
			username = req.Username
		}

		ctx, cancel := a.ctx(r)
		defer cancel()
		change, code := a.Groups.Remove, http.StatusOK
		if add {
			change, code = a.Groups.Add, http.StatusCreated
		}
		u, err := change(ctx, caller, kind, username)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ok(w, code, u)
	}
}

// delivery handles both variants of /delivery: crew assignment on an order,
// or Delivery group membership. POST assigns, DELETE unassigns.
func (a *API) delivery(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if err := caller.RequireManager(); err != nil {
		a.fail(w, r, err)
		return
	}
	var req restaurant.DeliveryRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	assign := r.Method == http.MethodPost
	if err := req.Validate(assign); err != nil {
		a.fail(w, r, err)
		return
	}

	ctx, cancel := a.ctx(r)
	defer cancel()

	if req.Target == restaurant.DeliveryTargetGroup {
		change := a.Groups.Remove
		if assign {
			change = a.Groups.Add
		}
		u, err := change(ctx, caller, restaurant.GroupKindDelivery, req.Username)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ok(w, http.StatusOK, u)
		return
	}

	var (
		ch  restaurant.OrderChange
		err error
	)
	if assign {
		ch, err = a.Orders.AssignCrew(ctx, caller, req.Order, req.Username)
	} else {
		ch, err = a.Orders.UnassignCrew(ctx, caller, req.Order)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.orderChanged(ctx, caller, ch)
	ok(w, http.StatusOK, ch.After)
}
