package restaurant

import (
	"context"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type UserService struct {
	Store    Store
	Resolver *Resolver
	Cost     int // bcrypt cost, DefaultCost when zero
}

func NewUserService(s Store, r *Resolver) *UserService {
	return &UserService{Store: s, Resolver: r}
}

func (s *UserService) Register(ctx context.Context, username, password, email string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return User{}, Errorf(KindValidation, "username is required")
	}
	if len(password) < minPasswordLen {
		return User{}, Errorf(KindValidation, "password must be at least %d characters", minPasswordLen)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return User{}, Errorf(KindValidation, "invalid email")
		}
	}

	hash, err := s.hash(password)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username, Email: email, Password: hash}
	if err := s.Store.CreateUser(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateSuperuser is used by seeding; it skips the password length rule.
func (s *UserService) CreateSuperuser(ctx context.Context, username, password, email string) (User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return User{}, err
	}
	u := User{Username: strings.TrimSpace(username), Email: email, Password: hash, IsSuperuser: true}
	if err := s.Store.CreateUser(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *UserService) hash(password string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", StorageError("hash password", err)
	}
	return string(b), nil
}

// Authenticate verifies credentials. Unknown user and wrong password look the same.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.Store.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if KindOf(err) == KindNotFound {
			return User{}, Errorf(KindUnauthorized, "invalid credentials")
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return User{}, Errorf(KindUnauthorized, "invalid credentials")
	}
	return u, nil
}

// Caller loads the user behind a verified token and resolves its role.
func (s *UserService) Caller(ctx context.Context, userID int64) (Caller, error) {
	u, err := s.Store.UserByID(ctx, userID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return Caller{}, ErrUnauthorized
		}
		return Caller{}, err
	}
	role, err := s.Resolver.Resolve(ctx, u)
	if err != nil {
		return Caller{}, err
	}
	return Caller{User: u, Role: role}, nil
}
