package services

import (
	"context"
	"errors"

	"shopfront/internal/api"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type AdminBackend interface {
	Login(ctx context.Context, email, password string) (string, domain.Admin, error)
	VerifyToken(ctx context.Context, token string) (domain.Admin, error)
	Profile(ctx context.Context, token string) (domain.Admin, error)
	Stats(ctx context.Context, token string) (domain.Stats, error)
}

type AdminCatalog interface {
	List(ctx context.Context, token string, p api.ListParams) (api.ProductPage, error)
	Get(ctx context.Context, token, id string) (domain.Product, error)
	Create(ctx context.Context, token string, in api.ProductInput) (domain.Product, error)
	Update(ctx context.Context, token, id string, in api.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, token, id string) error
}

type AdminService struct {
	API      AdminBackend
	Products AdminCatalog
	Sessions *repos.SessionRepo
}

func NewAdminService(a AdminBackend, products AdminCatalog, sessions *repos.SessionRepo) *AdminService {
	return &AdminService{API: a, Products: products, Sessions: sessions}
}

func (s *AdminService) Login(ctx context.Context, sid, email, password string) (domain.Admin, error) {
	token, a, err := s.API.Login(ctx, email, password)
	if err != nil {
		if rejected(err) {
			return domain.Admin{}, ErrBadCreds
		}
		return domain.Admin{}, err
	}
	if err := s.Sessions.BindAdmin(sid, a, token); err != nil {
		return domain.Admin{}, err
	}
	return a, nil
}

func (s *AdminService) Logout(sid string) error {
	return s.Sessions.UnbindAdmin(sid)
}

// Verify checks the session's admin token with the remote service. A
// token the service rejects is unbound.
func (s *AdminService) Verify(ctx context.Context, sess *domain.Session) (domain.Admin, error) {
	if !sess.IsAdmin() {
		return domain.Admin{}, ErrLoginRequired
	}
	a, err := s.API.VerifyToken(ctx, sess.AdminToken)
	if errors.Is(err, api.ErrUnauthorized) {
		_ = s.Sessions.UnbindAdmin(sess.ID)
		return domain.Admin{}, ErrLoginRequired
	}
	return a, err
}

func (s *AdminService) Profile(ctx context.Context, token string) (domain.Admin, error) {
	return s.API.Profile(ctx, token)
}

func (s *AdminService) Dashboard(ctx context.Context, token string) (domain.Stats, error) {
	return s.API.Stats(ctx, token)
}

func (s *AdminService) ListProducts(ctx context.Context, token string, p api.ListParams) (api.ProductPage, error) {
	if p.SortBy == "" {
		p.SortBy = "createdAt:desc"
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return s.Products.List(ctx, token, p)
}

func (s *AdminService) Product(ctx context.Context, token, id string) (domain.Product, error) {
	return s.Products.Get(ctx, token, id)
}

// SaveProduct creates the product when id is empty and updates it otherwise.
func (s *AdminService) SaveProduct(ctx context.Context, token, id string, in api.ProductInput) (domain.Product, error) {
	if id == "" {
		return s.Products.Create(ctx, token, in)
	}
	return s.Products.Update(ctx, token, id, in)
}

func (s *AdminService) DeleteProduct(ctx context.Context, token, id string) error {
	return s.Products.Delete(ctx, token, id)
}
