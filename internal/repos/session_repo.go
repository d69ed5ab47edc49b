package repos

import (
	"database/sql"
	"errors"

	"shopfront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Get returns the session row for sid. An unknown sid yields an empty
// session with that id, not an error.
func (r *SessionRepo) Get(sid string) (*domain.Session, error) {
	var s domain.Session
	err := r.DB.Get(&s, `
      SELECT id,user_id,user_name,user_email,token,admin_token,admin_name
      FROM sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Session{ID: sid}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) BindUser(sid string, u domain.User, token string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,user_name,user_email,token,last_seen)
                          VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET
                            user_id=excluded.user_id,
                            user_name=excluded.user_name,
                            user_email=excluded.user_email,
                            token=excluded.token,
                            last_seen=CURRENT_TIMESTAMP`,
		sid, u.ID, u.Name, u.Email, token)
	return err
}

func (r *SessionRepo) UnbindUser(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions
                          SET user_id='',user_name='',user_email='',token='',last_seen=CURRENT_TIMESTAMP
                          WHERE id=?`, sid)
	return err
}

func (r *SessionRepo) BindAdmin(sid string, a domain.Admin, token string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,admin_name,admin_token,last_seen)
                          VALUES(?,?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET
                            admin_name=excluded.admin_name,
                            admin_token=excluded.admin_token,
                            last_seen=CURRENT_TIMESTAMP`,
		sid, a.Name, token)
	return err
}

func (r *SessionRepo) UnbindAdmin(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET admin_name='',admin_token='',last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// Touch records activity on sid, creating the row on first sight.
func (r *SessionRepo) Touch(sid string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,last_seen) VALUES(?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`, sid)
	return err
}
