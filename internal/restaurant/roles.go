package restaurant

import (
	"context"
	"fmt"
	"slices"
)

type Role int

const (
	RoleCustomer Role = iota
	RoleDeliveryCrew
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleDeliveryCrew:
		return "delivery_crew"
	default:
		return "customer"
	}
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

const (
	GroupManager  = "Manager"
	GroupDelivery = "Delivery"
)

// RoleGroups is resolved once at startup and injected wherever membership matters.
type RoleGroups struct {
	Manager  Group
	Delivery Group
}

// LoadRoleGroups fails when either group is missing; callers treat that as fatal.
func LoadRoleGroups(ctx context.Context, s Store, managerName, deliveryName string) (RoleGroups, error) {
	m, err := s.GroupByName(ctx, managerName)
	if err != nil {
		return RoleGroups{}, fmt.Errorf("group %q: %w", managerName, err)
	}
	d, err := s.GroupByName(ctx, deliveryName)
	if err != nil {
		return RoleGroups{}, fmt.Errorf("group %q: %w", deliveryName, err)
	}
	return RoleGroups{Manager: m, Delivery: d}, nil
}

type Resolver struct {
	store  Store
	groups RoleGroups
}

func NewResolver(s Store, g RoleGroups) *Resolver {
	return &Resolver{store: s, groups: g}
}

func (r *Resolver) Groups() RoleGroups { return r.groups }

// Resolve checks superuser, then Manager, then Delivery.
func (r *Resolver) Resolve(ctx context.Context, u User) (Role, error) {
	if u.IsSuperuser {
		return RoleManager, nil
	}
	ids, err := r.store.UserGroupIDs(ctx, u.ID)
	if err != nil {
		return RoleCustomer, err
	}
	switch {
	case slices.Contains(ids, r.groups.Manager.ID):
		return RoleManager, nil
	case slices.Contains(ids, r.groups.Delivery.ID):
		return RoleDeliveryCrew, nil
	}
	return RoleCustomer, nil
}

// IsDeliveryCrew reports explicit Delivery group membership.
func (r *Resolver) IsDeliveryCrew(ctx context.Context, userID int64) (bool, error) {
	ids, err := r.store.UserGroupIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, r.groups.Delivery.ID), nil
}

// Caller is an authenticated user with its resolved role.
type Caller struct {
	User User
	Role Role
}

func (c Caller) Authenticated() bool { return c.User.ID != 0 }

func (c Caller) RequireAuth() error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

func (c Caller) RequireManager() error {
	if err := c.RequireAuth(); err != nil {
		return err
	}
	if c.Role != RoleManager {
		return Errorf(KindForbidden, "manager role required")
	}
	return nil
}

// RequireStaff admits managers and delivery crew, the roles that may modify orders.
func (c Caller) RequireStaff() error {
	if err := c.RequireAuth(); err != nil {
		return err
	}
	if c.Role == RoleCustomer {
		return Errorf(KindForbidden, "customers cannot modify orders")
	}
	return nil
}
