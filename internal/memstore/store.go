// Package memstore is an in-process restaurant.Store. Atomic runs on a copy of
// the data and publishes it only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type Store struct {
	mu     *sync.Mutex
	st     *state
	inTx   bool
	faults *faults
}

type state struct {
	nextID     int64
	users      map[int64]restaurant.User
	groups     map[int64]restaurant.Group
	members    map[int64]map[int64]bool // group id -> user ids
	categories map[int64]restaurant.Category
	menu       map[int64]restaurant.MenuItem
	featured   *int64
	cart       map[int64]restaurant.CartLine
	orders     map[int64]restaurant.Order
	items      map[int64]restaurant.OrderItem
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			users:      map[int64]restaurant.User{},
			groups:     map[int64]restaurant.Group{},
			members:    map[int64]map[int64]bool{},
			categories: map[int64]restaurant.Category{},
			menu:       map[int64]restaurant.MenuItem{},
			cart:       map[int64]restaurant.CartLine{},
			orders:     map[int64]restaurant.Order{},
			items:      map[int64]restaurant.OrderItem{},
		},
		faults: &faults{rules: map[string]*rule{}},
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:     s.nextID,
		users:      cloneMap(s.users),
		groups:     cloneMap(s.groups),
		members:    make(map[int64]map[int64]bool, len(s.members)),
		categories: cloneMap(s.categories),
		menu:       cloneMap(s.menu),
		cart:       cloneMap(s.cart),
		orders:     cloneMap(s.orders),
		items:      cloneMap(s.items),
	}
	for g, us := range s.members {
		c.members[g] = cloneMap(us)
	}
	if s.featured != nil {
		id := *s.featured
		c.featured = &id
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Atomic(ctx context.Context, fn func(tx restaurant.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return restaurant.StorageError("begin", err)
	}
	tx := &Store{mu: s.mu, st: s.st.clone(), inTx: true, faults: s.faults}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func notFound(what string) error {
	return restaurant.Errorf(restaurant.KindNotFound, "%s not found", what)
}

// ---- users & groups ----

func (s *Store) CreateUser(_ context.Context, u *restaurant.User) error {
	defer s.lock()()
	if err := s.faults.hit("CreateUser"); err != nil {
		return err
	}
	for _, x := range s.st.users {
		if strings.EqualFold(x.Username, u.Username) {
			return restaurant.Errorf(restaurant.KindValidation, "username %q already taken", u.Username)
		}
	}
	u.ID = s.st.id()
	u.CreatedAt = time.Now().UTC()
	s.st.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(_ context.Context, id int64) (restaurant.User, error) {
	defer s.lock()()
	u, ok := s.st.users[id]
	if !ok {
		return restaurant.User{}, notFound("user")
	}
	return u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (restaurant.User, error) {
	defer s.lock()()
	for _, u := range s.st.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return restaurant.User{}, notFound("user")
}

func (s *Store) EnsureGroup(_ context.Context, name string) (restaurant.Group, error) {
	defer s.lock()()
	for _, g := range s.st.groups {
		if g.Name == name {
			return g, nil
		}
	}
	g := restaurant.Group{ID: s.st.id(), Name: name}
	s.st.groups[g.ID] = g
	return g, nil
}

func (s *Store) GroupByName(_ context.Context, name string) (restaurant.Group, error) {
	defer s.lock()()
	for _, g := range s.st.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return restaurant.Group{}, notFound("group")
}

func (s *Store) UserGroupIDs(_ context.Context, userID int64) ([]int64, error) {
	defer s.lock()()
	var ids []int64
	for g, us := range s.st.members {
		if us[userID] {
			ids = append(ids, g)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GroupMembers(_ context.Context, groupID int64) ([]restaurant.User, error) {
	defer s.lock()()
	out := []restaurant.User{}
	for uid := range s.st.members[groupID] {
		out = append(out, s.st.users[uid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) AddGroupMember(_ context.Context, groupID, userID int64) error {
	defer s.lock()()
	if err := s.faults.hit("AddGroupMember"); err != nil {
		return err
	}
	if _, ok := s.st.groups[groupID]; !ok {
		return notFound("group")
	}
	if _, ok := s.st.users[userID]; !ok {
		return notFound("user")
	}
	if s.st.members[groupID] == nil {
		s.st.members[groupID] = map[int64]bool{}
	}
	s.st.members[groupID][userID] = true
	return nil
}

func (s *Store) RemoveGroupMember(_ context.Context, groupID, userID int64) error {
	defer s.lock()()
	if err := s.faults.hit("RemoveGroupMember"); err != nil {
		return err
	}
	delete(s.st.members[groupID], userID)
	return nil
}

// ---- catalogue ----

func (s *Store) CreateCategory(_ context.Context, c *restaurant.Category) error {
	defer s.lock()()
	for _, x := range s.st.categories {
		if x.Title == c.Title || x.Slug == c.Slug {
			return restaurant.Errorf(restaurant.KindValidation, "category %q already exists", c.Title)
		}
	}
	c.ID = s.st.id()
	s.st.categories[c.ID] = *c
	return nil
}

func (s *Store) CategoryByTitle(_ context.Context, title string) (restaurant.Category, error) {
	defer s.lock()()
	for _, c := range s.st.categories {
		if c.Title == title {
			return c, nil
		}
	}
	return restaurant.Category{}, notFound("category")
}

func (s *Store) ListCategories(_ context.Context) ([]restaurant.Category, error) {
	defer s.lock()()
	out := make([]restaurant.Category, 0, len(s.st.categories))
	for _, c := range s.st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) hydrate(m restaurant.MenuItem) restaurant.MenuItem {
	m.Category = s.categories[m.CategoryID].Title
	m.Featured = s.featured != nil && *s.featured == m.ID
	return m
}

func (s *state) titleTaken(title string, except int64) bool {
	for _, x := range s.menu {
		if x.ID != except && x.Title == title {
			return true
		}
	}
	return false
}

func (s *Store) CreateMenuItem(_ context.Context, m *restaurant.MenuItem) error {
	defer s.lock()()
	if err := s.faults.hit("CreateMenuItem"); err != nil {
		return err
	}
	if s.st.titleTaken(m.Title, 0) {
		return restaurant.Errorf(restaurant.KindValidation, "menu item %q already exists", m.Title)
	}
	if _, ok := s.st.categories[m.CategoryID]; !ok {
		return restaurant.Errorf(restaurant.KindValidation, "unknown category")
	}
	m.ID = s.st.id()
	stored := *m
	stored.Featured = false
	s.st.menu[m.ID] = stored
	*m = s.st.hydrate(stored)
	return nil
}

func (s *Store) UpdateMenuItem(_ context.Context, m restaurant.MenuItem) error {
	defer s.lock()()
	if err := s.faults.hit("UpdateMenuItem"); err != nil {
		return err
	}
	if _, ok := s.st.menu[m.ID]; !ok {
		return notFound("menu item")
	}
	if s.st.titleTaken(m.Title, m.ID) {
		return restaurant.Errorf(restaurant.KindValidation, "menu item %q already exists", m.Title)
	}
	m.Featured = false
	s.st.menu[m.ID] = m
	return nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.menu[id]; !ok {
		return notFound("menu item")
	}
	for _, it := range s.st.items {
		if it.MenuItemID == id {
			return restaurant.Errorf(restaurant.KindValidation, "menu item is referenced by orders")
		}
	}
	for lid, l := range s.st.cart {
		if l.MenuItemID == id {
			delete(s.st.cart, lid)
		}
	}
	if s.st.featured != nil && *s.st.featured == id {
		s.st.featured = nil
	}
	delete(s.st.menu, id)
	return nil
}

func (s *Store) MenuItemByID(_ context.Context, id int64) (restaurant.MenuItem, error) {
	defer s.lock()()
	m, ok := s.st.menu[id]
	if !ok {
		return restaurant.MenuItem{}, notFound("menu item")
	}
	return s.st.hydrate(m), nil
}

func (s *Store) MenuItemByTitle(_ context.Context, title string) (restaurant.MenuItem, error) {
	defer s.lock()()
	for _, m := range s.st.menu {
		if m.Title == title {
			return s.st.hydrate(m), nil
		}
	}
	return restaurant.MenuItem{}, notFound("menu item")
}

func (s *Store) ListMenuItems(_ context.Context, q restaurant.MenuQuery) ([]restaurant.MenuItem, int, error) {
	defer s.lock()()
	field, desc, err := q.OrderBy(restaurant.MenuOrderingFields...)
	if err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(q.Search)
	var all []restaurant.MenuItem
	for _, m := range s.st.menu {
		m = s.st.hydrate(m)
		if q.Category != "" && !strings.EqualFold(m.Category, q.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Title), search) {
			continue
		}
		all = append(all, m)
	}
	less := func(a, b restaurant.MenuItem) int {
		switch field {
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "price":
			return a.Price.Cmp(b.Price)
		case "featured":
			return boolCmp(a.Featured, b.Featured)
		case "category":
			return strings.Compare(a.Category, b.Category)
		}
		return 0
	}
	sortBy(all, less, desc, func(m restaurant.MenuItem) int64 { return m.ID })
	return paginate(all, q.ListParams), len(all), nil
}

func (s *Store) SetFeatured(_ context.Context, id *int64) error {
	defer s.lock()()
	if err := s.faults.hit("SetFeatured"); err != nil {
		return err
	}
	if id == nil {
		s.st.featured = nil
		return nil
	}
	if _, ok := s.st.menu[*id]; !ok {
		return notFound("menu item")
	}
	v := *id
	s.st.featured = &v
	return nil
}

func (s *Store) FeaturedItems(_ context.Context) ([]restaurant.MenuItem, error) {
	defer s.lock()()
	out := []restaurant.MenuItem{}
	if s.st.featured != nil {
		if m, ok := s.st.menu[*s.st.featured]; ok {
			out = append(out, s.st.hydrate(m))
		}
	}
	return out, nil
}

// ---- cart ----

func (s *Store) InsertCartLine(_ context.Context, l *restaurant.CartLine) error {
	defer s.lock()()
	if err := s.faults.hit("InsertCartLine"); err != nil {
		return err
	}
	m, ok := s.st.menu[l.MenuItemID]
	if !ok {
		return notFound("menu item")
	}
	l.ID = s.st.id()
	l.MenuItem = m.Title
	s.st.cart[l.ID] = *l
	return nil
}

func (s *Store) cartLines(userID int64) []restaurant.CartLine {
	out := []restaurant.CartLine{}
	for _, l := range s.st.cart {
		if l.UserID == userID {
			l.MenuItem = s.st.menu[l.MenuItemID].Title
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CartLines(_ context.Context, userID int64) ([]restaurant.CartLine, error) {
	defer s.lock()()
	return s.cartLines(userID), nil
}

// LockCartLines needs no extra locking: Atomic already holds the store mutex.
func (s *Store) LockCartLines(_ context.Context, userID int64) ([]restaurant.CartLine, error) {
	defer s.lock()()
	if err := s.faults.hit("LockCartLines"); err != nil {
		return nil, err
	}
	return s.cartLines(userID), nil
}

func (s *Store) DeleteCartLines(_ context.Context, ids []int64) (int64, error) {
	defer s.lock()()
	if err := s.faults.hit("DeleteCartLines"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := s.st.cart[id]; ok {
			delete(s.st.cart, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) ClearCart(_ context.Context, userID int64) (int64, error) {
	defer s.lock()()
	if err := s.faults.hit("ClearCart"); err != nil {
		return 0, err
	}
	var n int64
	for id, l := range s.st.cart {
		if l.UserID == userID {
			delete(s.st.cart, id)
			n++
		}
	}
	return n, nil
}

// ---- orders ----

func (s *Store) InsertOrder(_ context.Context, o *restaurant.Order) error {
	defer s.lock()()
	if err := s.faults.hit("InsertOrder"); err != nil {
		return err
	}
	o.ID = s.st.id()
	stored := *o
	stored.Items = nil
	s.st.orders[o.ID] = stored
	return nil
}

func (s *Store) InsertOrderItem(_ context.Context, it *restaurant.OrderItem) error {
	defer s.lock()()
	if err := s.faults.hit("InsertOrderItem"); err != nil {
		return err
	}
	if _, ok := s.st.orders[it.OrderID]; !ok {
		return restaurant.Errorf(restaurant.KindValidation, "unknown order")
	}
	it.ID = s.st.id()
	s.st.items[it.ID] = *it
	return nil
}

func (s *Store) OrderByID(_ context.Context, id int64) (restaurant.Order, error) {
	defer s.lock()()
	o, ok := s.st.orders[id]
	if !ok {
		return restaurant.Order{}, notFound("order")
	}
	return o, nil
}

// LockOrder is OrderByID: Atomic already serializes transactions.
func (s *Store) LockOrder(ctx context.Context, id int64) (restaurant.Order, error) {
	if err := s.faults.hit("LockOrder"); err != nil {
		return restaurant.Order{}, err
	}
	return s.OrderByID(ctx, id)
}

func (s *Store) OrderItems(_ context.Context, orderID int64) ([]restaurant.OrderItem, error) {
	defer s.lock()()
	out := []restaurant.OrderItem{}
	for _, it := range s.st.items {
		if it.OrderID == orderID {
			it.MenuItem = s.st.menu[it.MenuItemID].Title
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListOrders(_ context.Context, q restaurant.OrderQuery) ([]restaurant.Order, int, error) {
	defer s.lock()()
	field, desc, err := q.OrderBy(restaurant.OrderOrderingFields...)
	if err != nil {
		return nil, 0, err
	}
	var all []restaurant.Order
	for _, o := range s.st.orders {
		if q.UserID != nil && o.UserID != *q.UserID {
			continue
		}
		if q.DeliveryCrew != nil && (o.DeliveryCrew == nil || *o.DeliveryCrew != *q.DeliveryCrew) {
			continue
		}
		if q.Status != nil && o.Status != *q.Status {
			continue
		}
		all = append(all, o)
	}
	less := func(a, b restaurant.Order) int {
		switch field {
		case "user":
			return int64Cmp(a.UserID, b.UserID)
		case "delivery_crew":
			return int64Cmp(deref(a.DeliveryCrew), deref(b.DeliveryCrew))
		case "status":
			return strings.Compare(string(a.Status), string(b.Status))
		case "date":
			return a.Date.Compare(b.Date)
		}
		return 0
	}
	sortBy(all, less, desc, func(o restaurant.Order) int64 { return o.ID })
	return paginate(all, q.ListParams), len(all), nil
}

func (s *Store) UpdateOrder(_ context.Context, id int64, crew *int64, status restaurant.Status) error {
	defer s.lock()()
	if err := s.faults.hit("UpdateOrder"); err != nil {
		return err
	}
	o, ok := s.st.orders[id]
	if !ok {
		return notFound("order")
	}
	if crew != nil {
		if _, ok := s.st.users[*crew]; !ok {
			return restaurant.Errorf(restaurant.KindValidation, "unknown delivery crew user")
		}
		c := *crew
		crew = &c
	}
	o.DeliveryCrew = crew
	o.Status = status
	s.st.orders[id] = o
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id int64) error {
	defer s.lock()()
	if err := s.faults.hit("DeleteOrder"); err != nil {
		return err
	}
	if _, ok := s.st.orders[id]; !ok {
		return notFound("order")
	}
	for iid, it := range s.st.items {
		if it.OrderID == id {
			delete(s.st.items, iid)
		}
	}
	delete(s.st.orders, id)
	return nil
}

// ---- helpers ----

func sortBy[T any](xs []T, cmp func(a, b T) int, desc bool, id func(T) int64) {
	sort.SliceStable(xs, func(i, j int) bool {
		c := cmp(xs[i], xs[j])
		if c == 0 {
			return id(xs[i]) < id(xs[j])
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func paginate[T any](xs []T, p restaurant.ListParams) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(xs) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(xs) {
		end = len(xs)
	}
	return xs[start:end]
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func int64Cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
