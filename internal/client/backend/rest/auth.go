package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"estatehub/internal/client/backend"
	"estatehub/internal/core/domain"
)

type authAPI struct{ c *Client }

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (a *authAPI) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var session domain.Session
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/signin",
		body:   signInRequest{Email: email, Password: password},
	}, &session)
	if err != nil {
		return nil, err
	}
	return a.established(&session)
}

func (a *authAPI) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.Session, error) {
	var session domain.Session
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/signup",
		body: signUpRequest{
			Email:    email,
			Password: password,
			FullName: metadata[domain.MetaFullName],
			Phone:    metadata[domain.MetaPhone],
		},
	}, &session)
	if err != nil {
		return nil, err
	}
	return a.established(&session)
}

func (a *authAPI) established(session *domain.Session) (*domain.Session, error) {
	if err := a.c.tokens.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.c.emit(backend.EventSignedIn, session)
	return session.Clone(), nil
}

// SignOut forgets the local session first, then revokes the refresh token
func (a *authAPI) SignOut(ctx context.Context) error {
	session, err := a.c.tokens.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := a.c.tokens.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.c.emit(backend.EventSignedOut, nil)

	if session == nil || session.RefreshToken == "" {
		return nil
	}
	return a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/signout",
		body:   map[string]string{"refresh_token": session.RefreshToken},
	}, nil)
}

// GetSession validates the persisted session against the server, refreshing
// it when the access token has expired. A rejected session yields nil.
func (a *authAPI) GetSession(ctx context.Context) (*domain.Session, error) {
	stored, err := a.c.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		return nil, nil
	}

	var user domain.User
	err = a.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/session",
		authed: true,
	}, &user)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) {
			_ = a.c.tokens.Clear()
			return nil, nil
		}
		return nil, err
	}

	current, err := a.c.tokens.Load()
	if err != nil || current == nil {
		return nil, err
	}
	current.User = user
	return current, nil
}

func (a *authAPI) RefreshSession(ctx context.Context) (*domain.Session, error) {
	return a.c.refresh(ctx)
}

func (a *authAPI) OnAuthStateChange(fn backend.AuthListener) func() {
	return a.c.subscribe(fn)
}
