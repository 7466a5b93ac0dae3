package service

import (
	"context"
	"errors"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/pkg/cryptox"
	"github.com/mcpgate/mcpgate/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrOTPRequired        = errors.New("otp_required")
)

// LoginService authenticates the operator. The deployment has a single shared
// password rather than user accounts, optionally strengthened with TOTP.
type LoginService struct {
	Audit *AuditService

	// PasswordHash is an argon2id PHC string. When set it takes precedence
	// over Password.
	PasswordHash string

	// Password is the shared plaintext password, compared in constant time.
	// Used when no hash is configured.
	Password string

	// TOTPSecret, when non-empty, makes a valid TOTP code mandatory on
	// every login.
	TOTPSecret string
}

// OTPEnabled reports whether logins require a TOTP code.
func (s *LoginService) OTPEnabled() bool {
	return s.TOTPSecret != ""
}

// Authenticate checks the password and, when configured, the TOTP code.
// Returns the authentication methods used (for the session AMR claim).
func (s *LoginService) Authenticate(ctx context.Context, password, otpCode string) ([]string, error) {
	l := slogx.FromContext(ctx)

	if !s.verifyPassword(password) {
		s.Audit.Record(ctx, domain.AuditLogin, false, "", "invalid password")
		l.Warn("login rejected: invalid password")
		return nil, ErrInvalidCredentials
	}

	amr := []string{"pwd"}

	if s.TOTPSecret != "" {
		if otpCode == "" {
			return nil, ErrOTPRequired
		}
		if !totp.Validate(otpCode, s.TOTPSecret) {
			s.Audit.Record(ctx, domain.AuditLogin, false, "", "invalid otp code")
			l.Warn("login rejected: invalid otp code")
			return nil, ErrInvalidCredentials
		}
		amr = append(amr, "otp")
	}

	s.Audit.Record(ctx, domain.AuditLogin, true, "", "")
	l.Info("login succeeded", "amr", amr)
	return amr, nil
}

func (s *LoginService) verifyPassword(password string) bool {
	if password == "" {
		return false
	}
	if s.PasswordHash != "" {
		return cryptox.VerifyPassword(password, s.PasswordHash) == nil
	}
	if s.Password == "" {
		return false
	}
	return cryptox.SecureCompare(password, s.Password)
}
