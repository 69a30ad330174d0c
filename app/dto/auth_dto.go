package dto

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=admin influencer business_owner"`
}

// RegisterResponse represents the response to a successful registration
type RegisterResponse struct {
	Message string      `json:"message"`
	User    AuthUserDTO `json:"user"`
}

// LoginRequest represents the request to authenticate a user
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response to a successful login
type LoginResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	Role    string         `json:"role"`
	Name    string         `json:"name"`
	User    AuthUserDTO    `json:"user"`
	Session SessionInfoDTO `json:"session"`
}

// LogoutResponse represents the response to a logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// AuthUserDTO represents user information in authentication responses
type AuthUserDTO struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// SessionInfoDTO represents session token information in authentication responses
type SessionInfoDTO struct {
	SessionToken string  `json:"session_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	ExpiresIn    int     `json:"expires_in"`
	TokenType    string  `json:"token_type"`
	CreatedAt    string  `json:"created_at"`
}
