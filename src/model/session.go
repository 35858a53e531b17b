package model

import (
	"database/sql"
	"time"
)

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func CreateSession(db *sql.DB, s *Session) error {
	s.CreatedAt = time.Now()
	res, err := db.Exec(`
		INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Token, s.RefreshToken, s.UserAgent, s.ClientIP, s.IsBlocked, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

const sessionColumns = `id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at`

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.UserAgent, &s.ClientIP,
		&s.IsBlocked, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	return scanSession(db.QueryRow(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE token = ? AND is_blocked = 0 AND expires_at > ?`, token, time.Now()))
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	return scanSession(db.QueryRow(`
		SELECT `+sessionColumns+` FROM sessions
		WHERE refresh_token = ? AND is_blocked = 0 AND expires_at > ?`, refreshToken, time.Now()))
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func DeleteSessionByRefreshToken(db *sql.DB, refreshToken string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE refresh_token = ?`, refreshToken)
	return err
}
