package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements restaurant.Store on PostgreSQL.
type Store struct {
	DB *pgxpool.Pool
	q  querier
}

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db, q: db} }

var _ restaurant.Store = (*Store)(nil)

func (s *Store) Atomic(ctx context.Context, fn func(tx restaurant.Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		return fn(s)
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return restaurant.StorageError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{DB: s.DB, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return restaurant.StorageError("commit", err)
	}
	return nil
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrap maps driver errors onto the restaurant error kinds. what names the
// entity in client-facing messages.
func wrap(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return restaurant.Errorf(restaurant.KindNotFound, "%s not found", what)
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return restaurant.Errorf(restaurant.KindValidation, "%s already exists", what)
	case codeForeignKeyViolation:
		return restaurant.Errorf(restaurant.KindValidation, "%s refers to a missing row", what)
	case codeCheckViolation:
		return restaurant.Errorf(restaurant.KindValidation, "%s has an invalid value", what)
	case codeNumericOutOfRange:
		return restaurant.Errorf(restaurant.KindValidation, "%s has a value out of range", what)
	}
	return restaurant.StorageError(op, err)
}

func affected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return restaurant.Errorf(restaurant.KindNotFound, "%s not found", what)
	}
	return nil
}

// where accumulates AND-ed conditions; "?" in cond becomes the next placeholder.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func orderClause(field string, desc bool, columns map[string]string, tiebreak string) string {
	col, ok := columns[field]
	if !ok {
		return " ORDER BY " + tiebreak
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s", col, dir, tiebreak)
}

func limitClause(p restaurant.ListParams, w *where) string {
	p = p.Normalize()
	n := len(w.args)
	w.args = append(w.args, p.PerPage, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
}

// ---- users & groups ----

const userCols = `id, username, email, password, is_superuser, created_at`

func scanUser(row pgx.Row) (restaurant.User, error) {
	var u restaurant.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsSuperuser, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *restaurant.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users(username, email, password, is_superuser)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Username, u.Email, u.Password, u.IsSuperuser,
	).Scan(&u.ID, &u.CreatedAt)
	if pgCode(err) == codeUniqueViolation {
		return restaurant.Errorf(restaurant.KindValidation, "username %q already taken", u.Username)
	}
	return wrap("create user", "user", err)
}

func (s *Store) UserByID(ctx context.Context, id int64) (restaurant.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	return u, wrap("user by id", "user", err)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (restaurant.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(username)=lower($1)`, username))
	return u, wrap("user by username", "user", err)
}

func (s *Store) EnsureGroup(ctx context.Context, name string) (restaurant.Group, error) {
	var g restaurant.Group
	err := s.q.QueryRow(ctx, `
		INSERT INTO groups(name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`, name).Scan(&g.ID, &g.Name)
	return g, wrap("ensure group", "group", err)
}

func (s *Store) GroupByName(ctx context.Context, name string) (restaurant.Group, error) {
	var g restaurant.Group
	err := s.q.QueryRow(ctx, `SELECT id, name FROM groups WHERE name=$1`, name).Scan(&g.ID, &g.Name)
	return g, wrap("group by name", "group", err)
}

func (s *Store) UserGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT group_id FROM user_groups WHERE user_id=$1 ORDER BY group_id`, userID)
	if err != nil {
		return nil, wrap("user groups", "group", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, wrap("user groups", "group", err)
}

func (s *Store) GroupMembers(ctx context.Context, groupID int64) ([]restaurant.User, error) {
	rows, err := s.q.Query(ctx, `
		SELECT u.id, u.username, u.email, u.password, u.is_superuser, u.created_at
		FROM users u JOIN user_groups ug ON ug.user_id = u.id
		WHERE ug.group_id=$1
		ORDER BY u.username`, groupID)
	if err != nil {
		return nil, wrap("group members", "user", err)
	}
	out := []restaurant.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("group members", "user", err)
		}
		out = append(out, u)
	}
	return out, wrap("group members", "user", rows.Err())
}

func (s *Store) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO user_groups(group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, groupID, userID)
	if pgCode(err) == codeForeignKeyViolation {
		return restaurant.Errorf(restaurant.KindNotFound, "user or group not found")
	}
	return wrap("add group member", "group member", err)
}

func (s *Store) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM user_groups WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	return wrap("remove group member", "group member", err)
}

// ---- catalogue ----

func (s *Store) CreateCategory(ctx context.Context, c *restaurant.Category) error {
	err := s.q.QueryRow(ctx, `INSERT INTO categories(title, slug) VALUES ($1, $2) RETURNING id`,
		c.Title, c.Slug).Scan(&c.ID)
	if pgCode(err) == codeUniqueViolation {
		return restaurant.Errorf(restaurant.KindValidation, "category %q already exists", c.Title)
	}
	return wrap("create category", "category", err)
}

func (s *Store) CategoryByTitle(ctx context.Context, title string) (restaurant.Category, error) {
	var c restaurant.Category
	err := s.q.QueryRow(ctx, `SELECT id, title, slug FROM categories WHERE title=$1`, title).
		Scan(&c.ID, &c.Title, &c.Slug)
	return c, wrap("category by title", "category", err)
}

func (s *Store) ListCategories(ctx context.Context) ([]restaurant.Category, error) {
	rows, err := s.q.Query(ctx, `SELECT id, title, slug FROM categories ORDER BY id`)
	if err != nil {
		return nil, wrap("list categories", "category", err)
	}
	out := []restaurant.Category{}
	for rows.Next() {
		var c restaurant.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug); err != nil {
			rows.Close()
			return nil, wrap("list categories", "category", err)
		}
		out = append(out, c)
	}
	return out, wrap("list categories", "category", rows.Err())
}

const menuSelect = `
	SELECT m.id, m.title, m.price::text, (f.menuitem_id IS NOT NULL), m.category_id, c.title
	FROM menu_items m
	JOIN categories c ON c.id = m.category_id
	LEFT JOIN featured_item f ON f.menuitem_id = m.id`

var menuColumns = map[string]string{
	"title":    "m.title",
	"price":    "m.price",
	"featured": "(f.menuitem_id IS NOT NULL)",
	"category": "c.title",
}

func scanMenuItem(row pgx.Row) (restaurant.MenuItem, error) {
	var m restaurant.MenuItem
	err := row.Scan(&m.ID, &m.Title, &m.Price, &m.Featured, &m.CategoryID, &m.Category)
	return m, err
}

func (s *Store) CreateMenuItem(ctx context.Context, m *restaurant.MenuItem) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO menu_items(title, price, category_id) VALUES ($1, $2::numeric, $3)
		RETURNING id, (SELECT title FROM categories WHERE id=$3)`,
		m.Title, m.Price.String(), m.CategoryID,
	).Scan(&m.ID, &m.Category)
	switch pgCode(err) {
	case codeUniqueViolation:
		return restaurant.Errorf(restaurant.KindValidation, "menu item %q already exists", m.Title)
	case codeForeignKeyViolation:
		return restaurant.Errorf(restaurant.KindValidation, "unknown category")
	}
	m.Featured = false
	return wrap("create menu item", "menu item", err)
}

func (s *Store) UpdateMenuItem(ctx context.Context, m restaurant.MenuItem) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE menu_items SET title=$2, price=$3::numeric, category_id=$4 WHERE id=$1`,
		m.ID, m.Title, m.Price.String(), m.CategoryID)
	switch pgCode(err) {
	case codeUniqueViolation:
		return restaurant.Errorf(restaurant.KindValidation, "menu item %q already exists", m.Title)
	case codeForeignKeyViolation:
		return restaurant.Errorf(restaurant.KindValidation, "unknown category")
	}
	if err != nil {
		return wrap("update menu item", "menu item", err)
	}
	return affected(tag, "menu item")
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if pgCode(err) == codeForeignKeyViolation {
		return restaurant.Errorf(restaurant.KindValidation, "menu item is referenced by orders")
	}
	if err != nil {
		return wrap("delete menu item", "menu item", err)
	}
	return affected(tag, "menu item")
}

func (s *Store) MenuItemByID(ctx context.Context, id int64) (restaurant.MenuItem, error) {
	m, err := scanMenuItem(s.q.QueryRow(ctx, menuSelect+` WHERE m.id=$1`, id))
	return m, wrap("menu item by id", "menu item", err)
}

func (s *Store) MenuItemByTitle(ctx context.Context, title string) (restaurant.MenuItem, error) {
	m, err := scanMenuItem(s.q.QueryRow(ctx, menuSelect+` WHERE m.title=$1`, title))
	return m, wrap("menu item by title", "menu item", err)
}

func (s *Store) ListMenuItems(ctx context.Context, q restaurant.MenuQuery) ([]restaurant.MenuItem, int, error) {
	field, desc, err := q.OrderBy(restaurant.MenuOrderingFields...)
	if err != nil {
		return nil, 0, err
	}
	var w where
	if q.Category != "" {
		w.add("lower(c.title) = lower(?)", q.Category)
	}
	if q.Search != "" {
		w.add("strpos(lower(m.title), lower(?)) > 0", q.Search)
	}

	var count int
	err = s.q.QueryRow(ctx, `
		SELECT count(*) FROM menu_items m JOIN categories c ON c.id = m.category_id`+w.String(),
		w.args...).Scan(&count)
	if err != nil {
		return nil, 0, wrap("count menu items", "menu item", err)
	}

	sql := menuSelect + w.String() + orderClause(field, desc, menuColumns, "m.id") + limitClause(q.ListParams, &w)
	rows, err := s.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, 0, wrap("list menu items", "menu item", err)
	}
	out := []restaurant.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			rows.Close()
			return nil, 0, wrap("list menu items", "menu item", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("list menu items", "menu item", err)
	}
	return out, count, nil
}

func (s *Store) SetFeatured(ctx context.Context, id *int64) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO featured_item(id, menuitem_id) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET menuitem_id = EXCLUDED.menuitem_id`, id)
	if pgCode(err) == codeForeignKeyViolation {
		return restaurant.Errorf(restaurant.KindNotFound, "menu item not found")
	}
	return wrap("set featured", "featured item", err)
}

func (s *Store) FeaturedItems(ctx context.Context) ([]restaurant.MenuItem, error) {
	rows, err := s.q.Query(ctx, menuSelect+` WHERE f.menuitem_id IS NOT NULL`)
	if err != nil {
		return nil, wrap("featured items", "menu item", err)
	}
	out := []restaurant.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("featured items", "menu item", err)
		}
		out = append(out, m)
	}
	return out, wrap("featured items", "menu item", rows.Err())
}

// ---- cart ----

func (s *Store) InsertCartLine(ctx context.Context, l *restaurant.CartLine) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO cart_lines(user_id, menuitem_id, quantity, unit_price, price)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric)
		RETURNING id, (SELECT title FROM menu_items WHERE id=$2)`,
		l.UserID, l.MenuItemID, l.Quantity, l.UnitPrice.String(), l.Price.String(),
	).Scan(&l.ID, &l.MenuItem)
	if pgCode(err) == codeForeignKeyViolation {
		return restaurant.Errorf(restaurant.KindNotFound, "menu item not found")
	}
	return wrap("insert cart line", "cart line", err)
}

const cartSelect = `
	SELECT l.id, l.user_id, l.menuitem_id, m.title, l.quantity, l.unit_price::text, l.price::text
	FROM cart_lines l JOIN menu_items m ON m.id = l.menuitem_id
	WHERE l.user_id=$1
	ORDER BY l.id`

func (s *Store) cartLines(ctx context.Context, op, sql string, userID int64) ([]restaurant.CartLine, error) {
	rows, err := s.q.Query(ctx, sql, userID)
	if err != nil {
		return nil, wrap(op, "cart line", err)
	}
	out := []restaurant.CartLine{}
	for rows.Next() {
		var l restaurant.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.MenuItemID, &l.MenuItem, &l.Quantity, &l.UnitPrice, &l.Price); err != nil {
			rows.Close()
			return nil, wrap(op, "cart line", err)
		}
		out = append(out, l)
	}
	return out, wrap(op, "cart line", rows.Err())
}

func (s *Store) CartLines(ctx context.Context, userID int64) ([]restaurant.CartLine, error) {
	return s.cartLines(ctx, "cart lines", cartSelect, userID)
}

// LockCartLines row-locks the lines so a concurrent checkout of the same cart
// waits and then sees them gone.
func (s *Store) LockCartLines(ctx context.Context, userID int64) ([]restaurant.CartLine, error) {
	return s.cartLines(ctx, "lock cart lines", cartSelect+` FOR UPDATE OF l`, userID)
}

func (s *Store) DeleteCartLines(ctx context.Context, ids []int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM cart_lines WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, wrap("delete cart lines", "cart line", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ClearCart(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM cart_lines WHERE user_id=$1`, userID)
	if err != nil {
		return 0, wrap("clear cart", "cart line", err)
	}
	return tag.RowsAffected(), nil
}

// ---- orders ----

const orderSelect = `SELECT id, user_id, delivery_crew_id, status, total::text, date FROM orders`

var orderColumns = map[string]string{
	"user":          "user_id",
	"delivery_crew": "delivery_crew_id",
	"status":        "status",
	"date":          "date",
}

func scanOrder(row pgx.Row) (restaurant.Order, error) {
	var (
		o      restaurant.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrew, &status, &o.Total, &o.Date)
	o.Status = restaurant.Status(status)
	return o, err
}

func (s *Store) InsertOrder(ctx context.Context, o *restaurant.Order) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO orders(user_id, delivery_crew_id, status, total, date)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING id`,
		o.UserID, o.DeliveryCrew, string(o.Status), o.Total.String(), o.Date,
	).Scan(&o.ID)
	return wrap("insert order", "order", err)
}

func (s *Store) InsertOrderItem(ctx context.Context, it *restaurant.OrderItem) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO order_items(order_id, menuitem_id, quantity, unit_price, price)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric)
		RETURNING id`,
		it.OrderID, it.MenuItemID, it.Quantity, it.UnitPrice.String(), it.Price.String(),
	).Scan(&it.ID)
	return wrap("insert order item", "order item", err)
}

func (s *Store) OrderByID(ctx context.Context, id int64) (restaurant.Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx, orderSelect+` WHERE id=$1`, id))
	return o, wrap("order by id", "order", err)
}

func (s *Store) LockOrder(ctx context.Context, id int64) (restaurant.Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx, orderSelect+` WHERE id=$1 FOR UPDATE`, id))
	return o, wrap("lock order", "order", err)
}

func (s *Store) OrderItems(ctx context.Context, orderID int64) ([]restaurant.OrderItem, error) {
	rows, err := s.q.Query(ctx, `
		SELECT i.id, i.order_id, i.menuitem_id, m.title, i.quantity, i.unit_price::text, i.price::text
		FROM order_items i JOIN menu_items m ON m.id = i.menuitem_id
		WHERE i.order_id=$1
		ORDER BY i.id`, orderID)
	if err != nil {
		return nil, wrap("order items", "order item", err)
	}
	out := []restaurant.OrderItem{}
	for rows.Next() {
		var it restaurant.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.MenuItem, &it.Quantity, &it.UnitPrice, &it.Price); err != nil {
			rows.Close()
			return nil, wrap("order items", "order item", err)
		}
		out = append(out, it)
	}
	return out, wrap("order items", "order item", rows.Err())
}

func (s *Store) ListOrders(ctx context.Context, q restaurant.OrderQuery) ([]restaurant.Order, int, error) {
	field, desc, err := q.OrderBy(restaurant.OrderOrderingFields...)
	if err != nil {
		return nil, 0, err
	}
	var w where
	if q.UserID != nil {
		w.add("user_id = ?", *q.UserID)
	}
	if q.DeliveryCrew != nil {
		w.add("delivery_crew_id = ?", *q.DeliveryCrew)
	}
	if q.Status != nil {
		w.add("status = ?", string(*q.Status))
	}

	var count int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM orders`+w.String(), w.args...).Scan(&count); err != nil {
		return nil, 0, wrap("count orders", "order", err)
	}

	sql := orderSelect + w.String() + orderClause(field, desc, orderColumns, "id") + limitClause(q.ListParams, &w)
	rows, err := s.q.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, 0, wrap("list orders", "order", err)
	}
	out := []restaurant.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, wrap("list orders", "order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("list orders", "order", err)
	}
	return out, count, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id int64, crew *int64, status restaurant.Status) error {
	tag, err := s.q.Exec(ctx, `UPDATE orders SET delivery_crew_id=$2, status=$3 WHERE id=$1`,
		id, crew, string(status))
	if pgCode(err) == codeForeignKeyViolation {
		return restaurant.Errorf(restaurant.KindValidation, "unknown delivery crew user")
	}
	if err != nil {
		return wrap("update order", "order", err)
	}
	return affected(tag, "order")
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return wrap("delete order", "order", err)
	}
	return affected(tag, "order")
}
