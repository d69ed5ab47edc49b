package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shopfront/internal/api"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, domain.User, error)
	Register(ctx context.Context, name, email, password string) (string, error)
}

type AuthService struct {
	API      Authenticator
	Sessions *repos.SessionRepo
	Carts    *CartService
}

func NewAuthService(a Authenticator, sessions *repos.SessionRepo, carts *CartService) *AuthService {
	return &AuthService{API: a, Sessions: sessions, Carts: carts}
}

// Login authenticates against the remote service and binds the returned
// token to the browser session.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (domain.User, error) {
	token, u, err := s.API.Login(ctx, email, password)
	if err != nil {
		if rejected(err) {
			return domain.User{}, ErrBadCreds
		}
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.Sessions.BindUser(sid, u, token); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	return s.API.Register(ctx, name, email, password)
}

// Logout unbinds the user and empties the session's cart. A cart that
// could not be persisted empty is reported but the session is still
// logged out.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if err := s.Sessions.UnbindUser(sid); err != nil {
		return err
	}
	if s.Carts == nil {
		return nil
	}
	return s.Carts.Forget(ctx, sid)
}

func (s *AuthService) Session(sid string) (*domain.Session, error) {
	return s.Sessions.Get(sid)
}

// rejected reports whether the remote service refused the credentials, as
// opposed to being unreachable.
func rejected(err error) bool {
	if errors.Is(err, api.ErrUnauthorized) {
		return true
	}
	var ae *api.Error
	return errors.As(err, &ae) && (ae.Status == http.StatusBadRequest || ae.Status == http.StatusNotFound)
}
