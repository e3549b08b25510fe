package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for user registration
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Password string  `json:"password" binding:"required,min=8"`
}

// LoginRequest: payload for user login; identifier is an email or username
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns whichever of email/username the client supplied.
func (r LoginRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// AuthResponse: response payload after successful authentication
type AuthResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"` // always "Bearer"
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Username    *string `json:"username,omitempty"`
	ExpiresIn   int64   `json:"expires_in"` // seconds
}
