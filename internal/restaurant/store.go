package restaurant

import (
	"context"
	"strings"
)

// Store is the persistence contract. Lookups of absent rows return a KindNotFound
// error; constraint violations return KindValidation; everything else KindStorage.
type Store interface {
	// Atomic runs fn inside one transaction. fn must only use the Store it is given.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id int64) (User, error)
	UserByUsername(ctx context.Context, username string) (User, error)

	EnsureGroup(ctx context.Context, name string) (Group, error)
	GroupByName(ctx context.Context, name string) (Group, error)
	UserGroupIDs(ctx context.Context, userID int64) ([]int64, error)
	GroupMembers(ctx context.Context, groupID int64) ([]User, error)
	AddGroupMember(ctx context.Context, groupID, userID int64) error
	RemoveGroupMember(ctx context.Context, groupID, userID int64) error

	CreateCategory(ctx context.Context, c *Category) error
	CategoryByTitle(ctx context.Context, title string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateMenuItem(ctx context.Context, m *MenuItem) error
	// UpdateMenuItem writes title, price and category. Featured goes through SetFeatured.
	UpdateMenuItem(ctx context.Context, m MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	MenuItemByID(ctx context.Context, id int64) (MenuItem, error)
	MenuItemByTitle(ctx context.Context, title string) (MenuItem, error)
	ListMenuItems(ctx context.Context, q MenuQuery) ([]MenuItem, int, error)
	// SetFeatured replaces the single featured reference; nil clears it.
	SetFeatured(ctx context.Context, menuItemID *int64) error
	FeaturedItems(ctx context.Context) ([]MenuItem, error)

	InsertCartLine(ctx context.Context, l *CartLine) error
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
	// LockCartLines reads the user's lines and holds them until the transaction ends.
	LockCartLines(ctx context.Context, userID int64) ([]CartLine, error)
	DeleteCartLines(ctx context.Context, ids []int64) (int64, error)
	ClearCart(ctx context.Context, userID int64) (int64, error)

	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItem(ctx context.Context, it *OrderItem) error
	OrderByID(ctx context.Context, id int64) (Order, error)
	// LockOrder reads the order and holds its row until the transaction ends, so
	// read-modify-write updates do not overwrite each other.
	LockOrder(ctx context.Context, id int64) (Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]Order, int, error)
	UpdateOrder(ctx context.Context, id int64, deliveryCrew *int64, status Status) error
	DeleteOrder(ctx context.Context, id int64) error
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type ListParams struct {
	Page     int
	PerPage  int
	Ordering string // field name, "-" prefix for descending
}

func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p ListParams) Offset() int { return (p.Page - 1) * p.PerPage }

// OrderBy splits Ordering into a field and direction, rejecting fields outside allowed.
// An empty Ordering yields ("", false, nil).
func (p ListParams) OrderBy(allowed ...string) (field string, desc bool, err error) {
	raw := strings.TrimSpace(p.Ordering)
	if raw == "" {
		return "", false, nil
	}
	if strings.HasPrefix(raw, "-") {
		desc = true
		raw = raw[1:]
	}
	for _, a := range allowed {
		if a == raw {
			return raw, desc, nil
		}
	}
	return "", false, Errorf(KindValidation, "cannot order by %q", p.Ordering)
}

var (
	MenuOrderingFields  = []string{"title", "price", "featured", "category"}
	OrderOrderingFields = []string{"user", "delivery_crew", "status", "date"}
)

type MenuQuery struct {
	ListParams
	Category string // category title
	Search   string // title substring, case-insensitive
}

type OrderQuery struct {
	ListParams
	UserID       *int64
	DeliveryCrew *int64
	Status       *Status
}

type Page[T any] struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Results []T `json:"results"`
}

func NewPage[T any](p ListParams, results []T, count int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: count, Page: p.Page, PerPage: p.PerPage, Results: results}
}
