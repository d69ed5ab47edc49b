package handlers

import (
	"errors"
	"time"

	"shopfront/internal/api"
	"shopfront/internal/cart"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if sessionOf(c).LoggedIn() {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}
	if !validate.LoginPassword(pass) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}

	_, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}
	if err != nil {
		log.Error(c, "auth.login.error", err, nil)
		return render(c.Status(fiber.StatusBadGateway), "login", fiber.Map{"Err": "Login is unavailable right now. Please try again.", "Email": email})
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	name, okName := validate.Name(c.FormValue("name"))
	email, okEmail := validate.Email(c.FormValue("email"))
	pass := c.FormValue("password")
	form := fiber.Map{"Name": name, "Email": email}

	switch {
	case !okName:
		form["Err"] = "Name must be 1-50 characters"
	case !okEmail:
		form["Err"] = "Enter a valid email address"
	case !validate.Password(pass):
		form["Err"] = "Password must be 8-64 characters with upper and lower case letters, a digit and a symbol"
	}
	if form["Err"] != nil {
		log.Security(c, "validation.fail", map[string]any{"form": "signup"})
		return render(c.Status(fiber.StatusBadRequest), "signup", form)
	}

	msg, err := h.Auth.Register(c.UserContext(), name, email, pass)
	if err != nil {
		var ae *api.Error
		if errors.As(err, &ae) && ae.Status < 500 {
			log.Info(c, "auth.signup.rejected", map[string]any{"email": email, "status": ae.Status})
			form["Err"] = "Signup failed: " + api.Message(err, "please check your details")
			return render(c.Status(ae.Status), "signup", form)
		}
		log.Error(c, "auth.signup.error", err, nil)
		form["Err"] = "Signup failed. Please try again."
		return render(c.Status(fiber.StatusBadGateway), "signup", form)
	}

	log.Audit(c, "auth.signup.success", map[string]any{"email": email})
	if msg == "" {
		msg = "Account created successfully!"
	}
	return render(c, "login", fiber.Map{"Msg": msg + " Please log in.", "Email": email})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		if !errors.Is(err, cart.ErrPersist) {
			return err
		}
		log.Warn(c, "auth.logout.cart", err, nil)
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
