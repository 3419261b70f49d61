package restaurant

import (
	"context"
	"slices"
	"strings"
)

type GroupKind int

const (
	GroupKindManager GroupKind = iota
	GroupKindDelivery
)

type GroupService struct {
	Store  Store
	Groups RoleGroups
}

func NewGroupService(s Store, g RoleGroups) *GroupService {
	return &GroupService{Store: s, Groups: g}
}

func (g *GroupService) group(kind GroupKind) Group {
	if kind == GroupKindDelivery {
		return g.Groups.Delivery
	}
	return g.Groups.Manager
}

func (g *GroupService) Members(ctx context.Context, caller Caller, kind GroupKind) ([]User, error) {
	if err := caller.RequireManager(); err != nil {
		return nil, err
	}
	return g.Store.GroupMembers(ctx, g.group(kind).ID)
}

// Member returns the user only if it belongs to the group.
func (g *GroupService) Member(ctx context.Context, caller Caller, kind GroupKind, username string) (User, error) {
	if err := caller.RequireManager(); err != nil {
		return User{}, err
	}
	u, err := g.Store.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return User{}, err
	}
	ids, err := g.Store.UserGroupIDs(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	grp := g.group(kind)
	if !slices.Contains(ids, grp.ID) {
		return User{}, Errorf(KindNotFound, "%s is not in group %s", u.Username, grp.Name)
	}
	return u, nil
}

func (g *GroupService) Add(ctx context.Context, caller Caller, kind GroupKind, username string) (User, error) {
	return g.change(ctx, caller, kind, username, g.Store.AddGroupMember)
}

func (g *GroupService) Remove(ctx context.Context, caller Caller, kind GroupKind, username string) (User, error) {
	return g.change(ctx, caller, kind, username, g.Store.RemoveGroupMember)
}

func (g *GroupService) change(ctx context.Context, caller Caller, kind GroupKind, username string,
	op func(ctx context.Context, groupID, userID int64) error) (User, error) {
	if err := caller.RequireManager(); err != nil {
		return User{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, Errorf(KindValidation, "username is required")
	}
	u, err := g.Store.UserByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := op(ctx, g.group(kind).ID, u.ID); err != nil {
		return User{}, err
	}
	return u, nil
}

type DeliveryTarget string

const (
	DeliveryTargetOrder DeliveryTarget = "order"
	DeliveryTargetGroup DeliveryTarget = "group"
)

// DeliveryRequest is the body of /delivery. Target names the variant explicitly:
// "order" assigns Username as crew of Order, "group" changes Delivery membership.
type DeliveryRequest struct {
	Target   DeliveryTarget `json:"target"`
	Order    int64          `json:"order,omitempty"`
	Username string         `json:"username,omitempty"`
}

// Validate checks the fields each variant needs. Unassigning an order needs no username,
// so assign reports whether the request is a POST.
func (r DeliveryRequest) Validate(assign bool) error {
	switch r.Target {
	case DeliveryTargetOrder:
		if r.Order <= 0 {
			return Errorf(KindValidation, "order is required")
		}
		if assign && strings.TrimSpace(r.Username) == "" {
			return Errorf(KindValidation, "username is required")
		}
	case DeliveryTargetGroup:
		if strings.TrimSpace(r.Username) == "" {
			return Errorf(KindValidation, "username is required")
		}
	default:
		return Errorf(KindValidation, `target must be "order" or "group"`)
	}
	return nil
}
