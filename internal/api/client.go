// Package api talks to the remote e-commerce REST service that owns
// products, users and orders.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

// Error is a non-2xx response or a body with "success": false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == fiber.StatusUnauthorized
	case ErrNotFound:
		return e.Status == fiber.StatusNotFound
	}
	return false
}

// Message extracts a user-presentable message from err, falling back to def.
func Message(err error, def string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return def
}

type Client struct {
	Products *ProductsAPI
	Auth     *AuthAPI
	Orders   *OrdersAPI
	Admin    *AdminAPI

	base    string
	timeout time.Duration
	hc      *fiber.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		hc:      &fiber.Client{UserAgent: "shopfront"},
	}
	c.Products = &ProductsAPI{c: c, prefix: "/ecommerce"}
	c.Auth = &AuthAPI{c: c}
	c.Orders = &OrdersAPI{c: c}
	c.Admin = &AdminAPI{c: c, Products: &ProductsAPI{c: c, prefix: "/admin"}}
	return c
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type call struct {
	method string
	path   string
	token  string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, r call, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var a *fiber.Agent
	u := c.base + r.path
	switch r.method {
	case fiber.MethodPost:
		a = c.hc.Post(u)
	case fiber.MethodPut:
		a = c.hc.Put(u)
	case fiber.MethodDelete:
		a = c.hc.Delete(u)
	default:
		a = c.hc.Get(u)
	}
	if len(r.query) > 0 {
		a.QueryString(r.query.Encode())
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if r.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+r.token)
	}
	if r.body != nil {
		a.JSON(r.body)
	}
	a.Timeout(c.timeoutFor(ctx))

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", r.method, r.path, errors.Join(errs...))
	}

	var env envelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if code < 200 || code > 299 {
		return &Error{Status: code, Message: msg}
	}
	if env.Success != nil && !*env.Success {
		return &Error{Status: code, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", r.method, r.path, err)
	}
	return nil
}

// timeoutFor shortens the configured timeout to the context deadline.
func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	d := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}
