package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/little-lemon-api/internal/restaurant"
)

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	u, err := a.Users.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, u)
}

type meResp struct {
	restaurant.User
	Role restaurant.Role `json:"role"`
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	c := CallerFrom(r.Context())
	if !c.Authenticated() {
		a.fail(w, r, restaurant.ErrUnauthorized)
		return
	}
	ok(w, http.StatusOK, meResp{User: c.User, Role: c.Role})
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) token(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	u, err := a.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	pair, err := a.Tokens.Issue(u.ID)
	if err != nil {
		a.fail(w, r, restaurant.StorageError("issue token", err))
		return
	}
	ok(w, http.StatusOK, pair)
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

func (a *API) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	access, err := a.Tokens.Refresh(req.Refresh)
	if err != nil {
		a.fail(w, r, restaurant.Errorf(restaurant.KindUnauthorized, "invalid refresh token"))
		return
	}
	ok(w, http.StatusOK, map[string]string{"access": access})
}

func (a *API) notifications(w http.ResponseWriter, r *http.Request) {
	c := CallerFrom(r.Context())
	if !c.Authenticated() {
		a.fail(w, r, restaurant.ErrUnauthorized)
		return
	}
	if a.Inbox == nil {
		ok(w, http.StatusOK, []restaurant.Notification{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ctx, cancel := a.ctx(r)
	defer cancel()
	list, err := a.Inbox.List(ctx, c.User.ID, limit)
	if err != nil {
		a.fail(w, r, restaurant.StorageError("list notifications", err))
		return
	}
	ok(w, http.StatusOK, list)
}
