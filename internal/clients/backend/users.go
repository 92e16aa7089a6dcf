package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tradedeck/tradedeck/internal/domain"
)

// Session is the result of a successful login or signup
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// LoginInput carries login credentials
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput carries new account details
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries updatable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Login authenticates against the backend and returns the session token
// plus the user record.
func (c *Client) Login(ctx context.Context, input LoginInput) (*Session, error) {
	data, err := c.do(ctx, http.MethodPost, "/crypto/user/login", input)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decode(data, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("backend login response missing token")
	}
	if session.User.ID == "" {
		return nil, fmt.Errorf("backend login response missing user id")
	}

	return &session, nil
}

// Signup creates a new account and returns the resulting session
func (c *Client) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	data, err := c.do(ctx, http.MethodPost, "/crypto/user/signup", input)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decode(data, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("backend signup response missing token")
	}
	if session.User.ID == "" {
		return nil, fmt.Errorf("backend signup response missing user id")
	}

	return &session, nil
}

// CurrentUser fetches the authenticated user's record
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/crypto/user/me", nil)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := decode(data, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("backend user response missing id")
	}

	return &user, nil
}

// UpdateProfile updates the authenticated user's profile
func (c *Client) UpdateProfile(ctx context.Context, input ProfileUpdate) (*domain.User, error) {
	data, err := c.do(ctx, http.MethodPut, "/crypto/user/update", input)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := decode(data, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("backend user response missing id")
	}

	return &user, nil
}
