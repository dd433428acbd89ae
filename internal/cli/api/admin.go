package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"BookmarkAdmin/internal/cli/model"
)

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and email. Any other fields the server
// returns are kept verbatim in Extra.
type LoginResponse struct {
	Token string
	Email string
	Extra map[string]json.RawMessage
}

func (r *LoginResponse) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["token"]; ok {
		if err := json.Unmarshal(v, &r.Token); err != nil {
			return fmt.Errorf("token: %w", err)
		}
		delete(m, "token")
	}
	if v, ok := m["email"]; ok {
		if err := json.Unmarshal(v, &r.Email); err != nil {
			return fmt.Errorf("email: %w", err)
		}
		delete(m, "email")
	}
	if len(m) > 0 {
		r.Extra = m
	}
	return nil
}

func (r LoginResponse) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+2)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["token"] = r.Token
	m["email"] = r.Email
	return json.Marshal(m)
}

// Login exchanges credentials for a token. A 401 here means rejected credentials,
// not an expired session, so it does not emit the unauthorized event.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(withCredentialCheck(ctx), http.MethodPost, "/admin/login", LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, ErrEmptyToken
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var out model.Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.UserListItem, error) {
	var out []model.UserListItem
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*model.UserDetail, error) {
	var out model.UserDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/user/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser changes status and/or admin flag. Nil fields are not sent.
func (c *Client) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) error {
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return fmt.Errorf("invalid status %q (allowed: %s, %s)", *req.Status, model.StatusActive, model.StatusDisabled)
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/user/%d", id), req, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/user/%d", id), nil, nil)
}
