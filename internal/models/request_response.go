package models

import "github.com/shopspring/decimal"

// Request models
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoanRequestForm struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type ChangePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type DashboardResponse struct {
	Status    string    `json:"status"`
	Dashboard Dashboard `json:"dashboard"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
