package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const layout = "layouts/main"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if sess := sessionOf(c); sess.LoggedIn() {
		data["User"] = sess
	}
	if a := c.Locals("admin"); a != nil {
		data["Admin"] = a
	}
	// Nav badge.
	if st := cartOf(c); st != nil {
		data["CartCount"] = st.ItemCount()
	} else {
		data["CartCount"] = 0
	}
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data, layout)
}

// fail renders the friendly error page with status.
func fail(c *fiber.Ctx, status int, msg string) error {
	return render(c.Status(status), "notfound", fiber.Map{"Message": msg})
}
