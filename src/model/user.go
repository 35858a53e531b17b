package model

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	LoginCount   int       `json:"login_count"`
	LastLoginAt  NullTime  `json:"last_login_at"`
	LastLoginIP  string    `json:"last_login_ip"`
	MfaSecret    string    `json:"-"`
	MfaEnabled   bool      `json:"mfa_enabled"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NullTime is an alias for sql.NullTime for better JSON handling.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}

	res, err := db.Exec(`
		INSERT INTO users (username, email, password, auth_provider, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Password, u.AuthProvider, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

const userColumns = `id, username, email, password, auth_provider, login_count,
	last_login_at, last_login_ip, mfa_secret, mfa_enabled, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var password, lastLoginIP, mfaSecret sql.NullString
	var lastLoginAt sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Email, &password, &user.AuthProvider,
		&user.LoginCount, &lastLoginAt, &lastLoginIP, &mfaSecret, &user.MfaEnabled,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Password = password.String
	user.LastLoginIP = lastLoginIP.String
	user.MfaSecret = mfaSecret.String
	user.LastLoginAt = NullTime(lastLoginAt)
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (u *User) UpdateMFA(db *sql.DB, secret string, enabled bool) error {
	u.MfaSecret = secret
	u.MfaEnabled = enabled
	_, err := db.Exec(`UPDATE users SET mfa_secret = ?, mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		secret, enabled, time.Now(), u.ID)
	return err
}
