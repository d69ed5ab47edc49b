package domain

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Admin struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is what the storefront remembers about a browser session. Tokens
// are opaque bearer strings issued by the remote API.
type Session struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	UserName   string `db:"user_name"`
	UserEmail  string `db:"user_email"`
	Token      string `db:"token"`
	AdminToken string `db:"admin_token"`
	AdminName  string `db:"admin_name"`
}

func (s *Session) LoggedIn() bool { return s != nil && s.Token != "" }
func (s *Session) IsAdmin() bool  { return s != nil && s.AdminToken != "" }
