package api

import (
	"context"

	"shopfront/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type AdminAPI struct {
	c        *Client
	Products *ProductsAPI
}

func (a *AdminAPI) Login(ctx context.Context, email, password string) (string, domain.Admin, error) {
	var out struct {
		Token string       `json:"token"`
		Admin domain.Admin `json:"admin"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodPost, path: "/admin/login", body: credentials{Email: email, Password: password}}, &out)
	if err != nil {
		return "", domain.Admin{}, err
	}
	if out.Token == "" {
		return "", domain.Admin{}, &Error{Status: fiber.StatusUnauthorized, Message: "no token issued"}
	}
	return out.Token, out.Admin, nil
}

func (a *AdminAPI) VerifyToken(ctx context.Context, token string) (domain.Admin, error) {
	var out struct {
		Admin domain.Admin `json:"admin"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodGet, path: "/admin/verify-token", token: token}, &out)
	return out.Admin, err
}

func (a *AdminAPI) Profile(ctx context.Context, token string) (domain.Admin, error) {
	var out struct {
		Admin domain.Admin `json:"admin"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodGet, path: "/admin/profile", token: token}, &out)
	return out.Admin, err
}

func (a *AdminAPI) Stats(ctx context.Context, token string) (domain.Stats, error) {
	var out struct {
		Stats domain.Stats `json:"stats"`
	}
	err := a.c.do(ctx, call{method: fiber.MethodGet, path: "/admin/products/stats", token: token}, &out)
	return out.Stats, err
}
