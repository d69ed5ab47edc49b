package api

import (
	"context"

	"shopfront/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type AuthAPI struct{ c *Client }

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodPost, path: "/ecommerce/login", body: credentials{Email: email, Password: password}}, &out)
	if err != nil {
		return "", domain.User{}, err
	}
	if out.Token == "" {
		return "", domain.User{}, &Error{Status: fiber.StatusUnauthorized, Message: "no token issued"}
	}
	return out.Token, out.User, nil
}

// Register creates an account and returns the service's confirmation message.
func (a *AuthAPI) Register(ctx context.Context, name, email, password string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodPost, path: "/ecommerce/signup", body: credentials{Name: name, Email: email, Password: password}}, &out)
	return out.Message, err
}
