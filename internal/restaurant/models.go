package restaurant

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"` // bcrypt hash
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type MenuItem struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Featured   bool            `json:"featured"`
	CategoryID int64           `json:"-"`
	Category   string          `json:"category"` // category title
}

// CartLine price is fixed at insertion: later menu price changes do not touch it.
type CartLine struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user"`
	MenuItemID int64           `json:"menuitem_id"`
	MenuItem   string          `json:"menuitem"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Price      decimal.Decimal `json:"price"`
}

type Order struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user"`
	DeliveryCrew *int64          `json:"delivery_crew"`
	Status       Status          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Date         time.Time       `json:"date"`
	Items        []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order"`
	MenuItemID int64           `json:"menuitem_id"`
	MenuItem   string          `json:"menuitem"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Price      decimal.Decimal `json:"price"`
}

// LinePrice is unit × quantity in exact decimal arithmetic.
func LinePrice(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// money renders an amount with the two decimals every price column stores.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(2) + `"`), nil
}

func (m MenuItem) MarshalJSON() ([]byte, error) {
	type plain MenuItem
	return json.Marshal(struct {
		plain
		Price money `json:"price"`
	}{plain(m), money(m.Price)})
}

func (l CartLine) MarshalJSON() ([]byte, error) {
	type plain CartLine
	return json.Marshal(struct {
		plain
		UnitPrice money `json:"unit_price"`
		Price     money `json:"price"`
	}{plain(l), money(l.UnitPrice), money(l.Price)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Total money `json:"total"`
	}{plain(o), money(o.Total)})
}

func (it OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		UnitPrice money `json:"unit_price"`
		Price     money `json:"price"`
	}{plain(it), money(it.UnitPrice), money(it.Price)})
}
