// Package identity handles the signup leg of creator onboarding: account
// creation and OTP verification against the auth endpoints. A verified
// session's token is handed to the session store, after which every call
// through the gateway carries it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/application/apiclient"
	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/session"
)

const (
	pathSignup         = "/auth/signup"
	pathRequestOTP     = "/auth/request-otp"
	pathVerifyOTPEmail = "/auth/verify-otp/email"
	pathVerifyOTPPhone = "/auth/verify-otp/phone"
)

var otpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// SignupService runs the signup and verification calls.
type SignupService struct {
	caller   *apiclient.Caller
	session  *session.Store
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSignupService creates a signup service bound to one session store.
func NewSignupService(caller *apiclient.Caller, sess *session.Store, logger *zap.Logger) *SignupService {
	return &SignupService{
		caller:   caller,
		session:  sess,
		validate: validator.New(),
		logger:   logger,
	}
}

// Signup creates an account. Duplicate email/phone conflicts come back from
// the backend as a 400 domain failure with its application code intact.
func (s *SignupService) Signup(ctx context.Context, input SignupInput) (SignupResult, error) {
	if err := s.validateInput(input); err != nil {
		return SignupResult{}, err
	}
	if !input.TermsAccepted {
		return SignupResult{}, shared.NewInvalidRequest("Terms of service must be accepted to sign up.")
	}

	s.logger.Info("signup attempt", zap.String("email", input.Email))

	decoded, err := s.caller.PostJSON(ctx, pathSignup, input)
	if err != nil {
		return SignupResult{}, err
	}

	var result SignupResult
	if err := decoded.Into(&result); err != nil {
		return SignupResult{}, shared.NewDecodeFailure(pathSignup, err)
	}
	return result, nil
}

// RequestOTP asks the backend to deliver a one-time password.
func (s *SignupService) RequestOTP(ctx context.Context, req OTPRequest) error {
	if err := s.validateInput(req); err != nil {
		return err
	}
	_, err := s.caller.PostJSON(ctx, pathRequestOTP, req)
	return err
}

// VerifyOTP verifies a 6-digit code for the given channel. A malformed code
// is rejected locally. On success the returned token is stored as the
// session credential.
func (s *SignupService) VerifyOTP(ctx context.Context, otpType OTPType, emailOrPhone, code string) (VerifyResult, error) {
	if !otpCodePattern.MatchString(code) {
		failure := shared.NewInvalidRequest("The verification code is 6 digits.")
		failure.Fields = []shared.FieldError{{Field: "code", Message: "must be exactly 6 digits"}}
		return VerifyResult{}, failure
	}

	var path string
	switch otpType {
	case OTPTypeEmail:
		path = pathVerifyOTPEmail
	case OTPTypePhone:
		path = pathVerifyOTPPhone
	default:
		return VerifyResult{}, shared.NewInvalidRequest(fmt.Sprintf("unknown otp type %q", otpType))
	}

	decoded, err := s.caller.PostJSON(ctx, path, map[string]string{
		"email_or_phone": emailOrPhone,
		"code":           code,
	})
	if err != nil {
		return VerifyResult{}, err
	}

	var result VerifyResult
	if err := decoded.Into(&result); err != nil {
		return VerifyResult{}, shared.NewDecodeFailure(path, err)
	}

	if result.AccessToken != "" {
		s.session.Set(result.AccessToken)
		s.logger.Info("session established", zap.String("channel", string(otpType)))
	}
	return result, nil
}

// Logout clears the session credential.
func (s *SignupService) Logout() {
	s.session.Clear()
	s.logger.Info("session cleared")
}

// validateInput converts validator violations into a local classified
// failure that never reaches the network.
func (s *SignupService) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return shared.NewInvalidRequest("payload validation failed").WithCause(err)
	}

	fields := make([]shared.FieldError, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, shared.FieldError{
			Field:   v.Field(),
			Message: fmt.Sprintf("failed %q validation", v.Tag()),
		})
	}
	failure := shared.NewInvalidRequest("Some fields are invalid. Fix them and try again.")
	failure.Fields = fields
	return failure
}
