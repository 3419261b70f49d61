package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/little-lemon-api/internal/auth"
	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// EventPublisher emits order events. Failures are logged, never returned to clients.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, topic, eventType string, orderID int64, payload any) error
}

// OrderCache is versioned: Get reports the order's current cache version and
// Set stores under the version the reader saw, so Invalidate between the two
// leaves the late write unreachable.
type OrderCache interface {
	Get(ctx context.Context, id int64) (order restaurant.Order, version int64, hit bool, err error)
	Set(ctx context.Context, o restaurant.Order, version int64) error
	Invalidate(ctx context.Context, id int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, identity string, limit int) (bool, error)
}

type NotificationReader interface {
	List(ctx context.Context, userID int64, limit int) ([]restaurant.Notification, error)
}

// API wires the restaurant services to HTTP. Events, Cache, Limiter and Inbox
// are optional.
type API struct {
	Users  *restaurant.UserService
	Cart   *restaurant.CartService
	Orders *restaurant.OrderService
	Menu   *restaurant.MenuService
	Groups *restaurant.GroupService
	Tokens *auth.Issuer

	Events  EventPublisher
	Cache   OrderCache
	Limiter RateLimiter
	Inbox   NotificationReader

	RateUserPerMin int
	RateAnonPerMin int
	Timeout        time.Duration
	Log            *slog.Logger
}

func (a *API) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(a.authenticate, a.rateLimit)

		r.Post("/users", a.register)
		r.Post("/register", a.register)
		r.Get("/users/me", a.me)
		r.Post("/token", a.token)
		r.Post("/token/refresh", a.refreshToken)
		r.Get("/notifications", a.notifications)

		r.Get("/cart/menu-items", a.listCart)
		r.Post("/cart/menu-items", a.addToCart)
		r.Delete("/cart/menu-items", a.clearCart)

		r.Get("/orders", a.listOrders)
		r.Post("/orders", a.checkout)
		r.Get("/orders/{id}", a.getOrder)
		r.Put("/orders/{id}", a.replaceOrder)
		r.Patch("/orders/{id}", a.patchOrder)
		r.Delete("/orders/{id}", a.deleteOrder)

		r.Get("/menu-items", a.listMenu)
		r.Post("/menu-items", a.createMenuItem)
		r.Get("/menu-items/{id}", a.getMenuItem)
		r.Put("/menu-items/{id}", a.replaceMenuItem)
		r.Patch("/menu-items/{id}", a.patchMenuItem)
		r.Delete("/menu-items/{id}", a.deleteMenuItem)

		r.Get("/category", a.listCategories)
		r.Post("/category", a.createCategory)

		r.Get("/featured", a.listFeatured)
		r.Post("/featured", a.setFeatured)

		r.Post("/delivery", a.delivery)
		r.Delete("/delivery", a.delivery)

		a.registerGroup(r, "/groups/manager/users", restaurant.GroupKindManager)
		a.registerGroup(r, "/groups/delivery-crew/users", restaurant.GroupKindDelivery)
	})
}

func (a *API) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	d := a.Timeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), d)
}

func (a *API) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if a.Events == nil {
		return
	}
	if err := a.Events.PublishOrderEvent(ctx, topic, eventType, orderID, payload); err != nil {
		a.Log.WarnContext(ctx, "publish order event", "topic", topic, "order_id", orderID, "error", err)
	}
}

func (a *API) invalidate(ctx context.Context, orderID int64) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Invalidate(ctx, orderID); err != nil {
		a.Log.WarnContext(ctx, "invalidate order cache", "order_id", orderID, "error", err)
	}
}
