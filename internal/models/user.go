package models

import "time"

// User represents a registered user.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest accepts either a username or an email as identifier.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" query:"username_or_email"`
	Password        string `json:"password" query:"password"`
}

// OAuthLoginForm is the OAuth2 password-flow form body.
type OAuthLoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Token is the access token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Pagination holds skip/limit list parameters.
type Pagination struct {
	Skip  int `query:"skip"`
	Limit int `query:"limit"`
}

// Validate sets defaults and clamps values.
func (p *Pagination) Validate() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 100
	}
}
