package ports

import (
	"context"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// AuthGateway performs the remote credential exchange.
type AuthGateway interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginGrant, error)
}

// AccountGateway covers the account endpoints reachable from the console.
type AccountGateway interface {
	Me(ctx context.Context) (*domain.BackendUser, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPResult, error)
	ResetPassword(ctx context.Context, token string, in ResetPasswordInput) (string, error)
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type VerifyOTPInput struct {
	Email string `json:"email,omitempty"`
	OTP   string `json:"otp"`
	// Token, when set, is sent as the bearer instead of the session token.
	Token string `json:"-"`
}

type VerifyOTPResult struct {
	Message     string
	AccessToken string
}

type ResetPasswordInput struct {
	NewPassword string `json:"newPassword"`
}
