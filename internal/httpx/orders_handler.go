package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	q := restaurant.OrderQuery{ListParams: p}
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := restaurant.ParseStatus(s)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		q.Status = &st
	}
	if s := r.URL.Query().Get("delivery_crew"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			a.fail(w, r, restaurant.Errorf(restaurant.KindValidation, "delivery_crew must be a user id"))
			return
		}
		q.DeliveryCrew = &id
	}

	ctx, cancel := a.ctx(r)
	defer cancel()
	page, err := a.Orders.List(ctx, CallerFrom(r.Context()), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, page)
}

func (a *API) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()

	o, err := a.Orders.Checkout(ctx, CallerFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.publish(ctx, restaurant.TopicOrderPlaced, restaurant.EventOrderPlaced, o.ID, restaurant.OrderPlacedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Items:   len(o.Items),
		Total:   o.Total,
	})
	ok(w, http.StatusCreated, o)
}

// getOrder serves from the cache when possible; visibility is checked either way.
func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	if !caller.Authenticated() {
		a.fail(w, r, restaurant.ErrUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	var ver int64
	cacheable := a.Cache != nil
	if a.Cache != nil {
		cached, v, hit, err := a.Cache.Get(ctx, id)
		if err != nil {
			a.Log.WarnContext(ctx, "order cache get", "order_id", id, "error", err)
			cacheable = false
		}
		ver = v
		if hit {
			if err := restaurant.CanView(caller, cached); err != nil {
				a.fail(w, r, err)
				return
			}
			ok(w, http.StatusOK, cached)
			return
		}
	}

	o, err := a.Orders.Get(ctx, caller, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if cacheable {
		if err := a.Cache.Set(ctx, o, ver); err != nil {
			a.Log.WarnContext(ctx, "order cache set", "order_id", id, "error", err)
		}
	}
	ok(w, http.StatusOK, o)
}

func (a *API) replaceOrder(w http.ResponseWriter, r *http.Request) {
	a.updateOrder(w, r, restaurant.Caller.RequireManager, a.Orders.Replace)
}

func (a *API) patchOrder(w http.ResponseWriter, r *http.Request) {
	a.updateOrder(w, r, restaurant.Caller.RequireStaff, a.Orders.Patch)
}

type orderUpdateFunc func(ctx context.Context, caller restaurant.Caller, id int64, upd restaurant.OrderUpdate) (restaurant.OrderChange, error)

// updateOrder checks the caller's role before reading the body, so a request
// that could never succeed is rejected as 401/403 rather than 400.
func (a *API) updateOrder(w http.ResponseWriter, r *http.Request, allowed func(restaurant.Caller) error, apply orderUpdateFunc) {
	caller := CallerFrom(r.Context())
	if err := allowed(caller); err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var upd restaurant.OrderUpdate
	if err := decode(r, &upd); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	ch, err := apply(ctx, caller, id, upd)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.orderChanged(ctx, caller, ch)
	ok(w, http.StatusOK, ch.After)
}

func (a *API) orderChanged(ctx context.Context, caller restaurant.Caller, ch restaurant.OrderChange) {
	a.invalidate(ctx, ch.After.ID)
	a.publish(ctx, restaurant.TopicOrderUpdated, restaurant.EventOrderUpdated, ch.After.ID,
		restaurant.UpdatedPayload(ch.Before, ch.After, caller.User.ID))
}

func (a *API) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	caller := CallerFrom(r.Context())
	o, err := a.Orders.Delete(ctx, caller, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.invalidate(ctx, o.ID)
	a.publish(ctx, restaurant.TopicOrderDeleted, restaurant.EventOrderDeleted, o.ID, restaurant.OrderDeletedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		DeletedBy: caller.User.ID,
	})
	ok(w, http.StatusOK, o)
}
