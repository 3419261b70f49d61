package restaurant

import (
	"context"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var maxPrice = decimal.NewFromInt(10000) // numeric(6,2)

type MenuService struct {
	Store Store
}

func NewMenuService(s Store) *MenuService { return &MenuService{Store: s} }

type MenuItemInput struct {
	Title    Optional[string]          `json:"title"`
	Price    Optional[decimal.Decimal] `json:"price"`
	Featured Optional[bool]            `json:"featured"`
	Category Optional[string]          `json:"category"` // category title
}

func (m *MenuService) List(ctx context.Context, caller Caller, q MenuQuery) (Page[MenuItem], error) {
	if err := caller.RequireAuth(); err != nil {
		return Page[MenuItem]{}, err
	}
	q.ListParams = q.Normalize()
	if _, _, err := q.OrderBy(MenuOrderingFields...); err != nil {
		return Page[MenuItem]{}, err
	}
	items, n, err := m.Store.ListMenuItems(ctx, q)
	if err != nil {
		return Page[MenuItem]{}, err
	}
	return NewPage(q.ListParams, items, n), nil
}

func (m *MenuService) Get(ctx context.Context, caller Caller, id int64) (MenuItem, error) {
	if err := caller.RequireAuth(); err != nil {
		return MenuItem{}, err
	}
	return m.Store.MenuItemByID(ctx, id)
}

func (m *MenuService) Create(ctx context.Context, caller Caller, in MenuItemInput) (MenuItem, error) {
	if err := caller.RequireManager(); err != nil {
		return MenuItem{}, err
	}
	if !in.Title.Set || !in.Price.Set || !in.Category.Set {
		return MenuItem{}, Errorf(KindValidation, "title, price and category are required")
	}
	var item MenuItem
	err := m.Store.Atomic(ctx, func(tx Store) error {
		if err := applyMenuInput(ctx, tx, &item, in); err != nil {
			return err
		}
		if err := tx.CreateMenuItem(ctx, &item); err != nil {
			return err
		}
		return syncFeatured(ctx, tx, &item, in.Featured, false)
	})
	return item, err
}

// Replace overwrites every field; an absent featured flag means false.
func (m *MenuService) Replace(ctx context.Context, caller Caller, id int64, in MenuItemInput) (MenuItem, error) {
	if err := caller.RequireManager(); err != nil {
		return MenuItem{}, err
	}
	if !in.Title.Set || !in.Price.Set || !in.Category.Set {
		return MenuItem{}, Errorf(KindValidation, "title, price and category are required")
	}
	if !in.Featured.Set {
		in.Featured = Some(false)
	}
	return m.update(ctx, id, in)
}

func (m *MenuService) Patch(ctx context.Context, caller Caller, id int64, in MenuItemInput) (MenuItem, error) {
	if err := caller.RequireManager(); err != nil {
		return MenuItem{}, err
	}
	return m.update(ctx, id, in)
}

func (m *MenuService) update(ctx context.Context, id int64, in MenuItemInput) (MenuItem, error) {
	var item MenuItem
	err := m.Store.Atomic(ctx, func(tx Store) error {
		cur, err := tx.MenuItemByID(ctx, id)
		if err != nil {
			return err
		}
		wasFeatured := cur.Featured
		if err := applyMenuInput(ctx, tx, &cur, in); err != nil {
			return err
		}
		if err := tx.UpdateMenuItem(ctx, cur); err != nil {
			return err
		}
		item = cur
		return syncFeatured(ctx, tx, &item, in.Featured, wasFeatured)
	})
	return item, err
}

func (m *MenuService) Delete(ctx context.Context, caller Caller, id int64) error {
	if err := caller.RequireManager(); err != nil {
		return err
	}
	return m.Store.DeleteMenuItem(ctx, id)
}

func applyMenuInput(ctx context.Context, tx Store, item *MenuItem, in MenuItemInput) error {
	if in.Title.Set {
		title := strings.TrimSpace(in.Title.Value)
		if title == "" {
			return Errorf(KindValidation, "title must not be empty")
		}
		item.Title = title
	}
	if in.Price.Set {
		if err := validatePrice(in.Price.Value); err != nil {
			return err
		}
		item.Price = in.Price.Value
	}
	if in.Category.Set {
		cat, err := tx.CategoryByTitle(ctx, strings.TrimSpace(in.Category.Value))
		if err != nil {
			return err
		}
		item.CategoryID = cat.ID
		item.Category = cat.Title
	}
	return nil
}

func syncFeatured(ctx context.Context, tx Store, item *MenuItem, flag Optional[bool], wasFeatured bool) error {
	switch {
	case !flag.Set:
		return nil
	case flag.Value:
		item.Featured = true
		return tx.SetFeatured(ctx, &item.ID)
	case wasFeatured:
		item.Featured = false
		return tx.SetFeatured(ctx, nil)
	}
	item.Featured = false
	return nil
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return Errorf(KindValidation, "price must not be negative")
	}
	if !p.Equal(p.Round(2)) {
		return Errorf(KindValidation, "price has more than two decimal places")
	}
	if p.GreaterThanOrEqual(maxPrice) {
		return Errorf(KindValidation, "price must be below %s", maxPrice)
	}
	return nil
}

// Featured lists the featured item, if any.
func (m *MenuService) Featured(ctx context.Context, caller Caller) ([]MenuItem, error) {
	if err := caller.RequireAuth(); err != nil {
		return nil, err
	}
	return m.Store.FeaturedItems(ctx)
}

// SetFeatured points the single featured reference at the item titled title.
// One statement replaces the previous reference, so there is never zero or two.
func (m *MenuService) SetFeatured(ctx context.Context, caller Caller, title string) (MenuItem, error) {
	if err := caller.RequireManager(); err != nil {
		return MenuItem{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return MenuItem{}, Errorf(KindValidation, "title is required")
	}
	var item MenuItem
	err := m.Store.Atomic(ctx, func(tx Store) error {
		it, err := tx.MenuItemByTitle(ctx, title)
		if err != nil {
			return err
		}
		if err := tx.SetFeatured(ctx, &it.ID); err != nil {
			return err
		}
		it.Featured = true
		item = it
		return nil
	})
	return item, err
}

func (m *MenuService) Categories(ctx context.Context, caller Caller) ([]Category, error) {
	if err := caller.RequireAuth(); err != nil {
		return nil, err
	}
	return m.Store.ListCategories(ctx)
}

func (m *MenuService) CreateCategory(ctx context.Context, caller Caller, title, slug string) (Category, error) {
	if err := caller.RequireManager(); err != nil {
		return Category{}, err
	}
	c := Category{Title: strings.TrimSpace(title), Slug: strings.TrimSpace(slug)}
	if c.Title == "" {
		return Category{}, Errorf(KindValidation, "title is required")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if err := m.Store.CreateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
