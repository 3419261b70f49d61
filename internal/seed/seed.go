// Package seed loads fixed reference data (groups, catalogue, accounts) from YAML.
// Applying a file twice is a no-op: existing rows are left untouched.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type File struct {
	Groups     []string   `yaml:"groups"`
	Categories []Category `yaml:"categories"`
	MenuItems  []MenuItem `yaml:"menu_items"`
	Superuser  *Account   `yaml:"superuser"`
	Users      []Account  `yaml:"users"`
}

type Category struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
}

type MenuItem struct {
	Title    string `yaml:"title"`
	Price    string `yaml:"price"`
	Category string `yaml:"category"`
	Featured bool   `yaml:"featured"`
}

type Account struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Email    string   `yaml:"email"`
	Groups   []string `yaml:"groups"`
}

func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(b)
}

// Parse rejects unknown keys so typos in the file surface at startup.
func Parse(b []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

type Seeder struct {
	Store restaurant.Store
	Users *restaurant.UserService
	Log   *slog.Logger
}

func (s *Seeder) Apply(ctx context.Context, f File) error {
	for _, g := range f.Groups {
		if _, err := s.Store.EnsureGroup(ctx, g); err != nil {
			return fmt.Errorf("seed group %q: %w", g, err)
		}
	}
	for _, c := range f.Categories {
		if err := s.category(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Title, err)
		}
	}
	for _, m := range f.MenuItems {
		if err := s.menuItem(ctx, m); err != nil {
			return fmt.Errorf("seed menu item %q: %w", m.Title, err)
		}
	}
	if f.Superuser != nil {
		if err := s.account(ctx, *f.Superuser, true); err != nil {
			return fmt.Errorf("seed superuser %q: %w", f.Superuser.Username, err)
		}
	}
	for _, a := range f.Users {
		if err := s.account(ctx, a, false); err != nil {
			return fmt.Errorf("seed user %q: %w", a.Username, err)
		}
	}
	return nil
}

func (s *Seeder) category(ctx context.Context, in Category) error {
	_, err := s.Store.CategoryByTitle(ctx, in.Title)
	if !errors.Is(err, restaurant.ErrNotFound) {
		return err
	}
	c := restaurant.Category{Title: in.Title, Slug: in.Slug}
	if c.Slug == "" {
		c.Slug = restaurant.Slugify(c.Title)
	}
	if err := s.Store.CreateCategory(ctx, &c); err != nil {
		return err
	}
	s.Log.Info("seeded category", "title", c.Title)
	return nil
}

func (s *Seeder) menuItem(ctx context.Context, in MenuItem) error {
	item, err := s.Store.MenuItemByTitle(ctx, in.Title)
	switch {
	case err == nil:
	case errors.Is(err, restaurant.ErrNotFound):
		price, perr := decimal.NewFromString(in.Price)
		if perr != nil {
			return fmt.Errorf("price %q: %w", in.Price, perr)
		}
		cat, cerr := s.Store.CategoryByTitle(ctx, in.Category)
		if cerr != nil {
			return cerr
		}
		item = restaurant.MenuItem{Title: in.Title, Price: price, CategoryID: cat.ID}
		if err := s.Store.CreateMenuItem(ctx, &item); err != nil {
			return err
		}
		s.Log.Info("seeded menu item", "title", item.Title)
	default:
		return err
	}
	if in.Featured && !item.Featured {
		return s.Store.SetFeatured(ctx, &item.ID)
	}
	return nil
}

func (s *Seeder) account(ctx context.Context, a Account, super bool) error {
	u, err := s.Store.UserByUsername(ctx, a.Username)
	switch {
	case err == nil:
	case errors.Is(err, restaurant.ErrNotFound):
		if super {
			u, err = s.Users.CreateSuperuser(ctx, a.Username, a.Password, a.Email)
		} else {
			u, err = s.Users.Register(ctx, a.Username, a.Password, a.Email)
		}
		if err != nil {
			return err
		}
		s.Log.Info("seeded user", "username", u.Username, "superuser", super)
	default:
		return err
	}
	for _, name := range a.Groups {
		g, err := s.Store.GroupByName(ctx, name)
		if err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		if err := s.Store.AddGroupMember(ctx, g.ID, u.ID); err != nil {
			return err
		}
	}
	return nil
}
