package backend

import "BizDesk/internal/session"

// LoginRequest represents the request body for POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the data of a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}
