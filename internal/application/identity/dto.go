package identity

// SignupInput is the account-creation payload. Phone numbers use the
// +<country><digits> form.
type SignupInput struct {
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,e164"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	FullName       string `json:"full_name" validate:"required,min=2,max=100"`
	DateOfBirth    string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Role           string `json:"role" validate:"required,oneof=creator brand"`
	TermsAccepted  bool   `json:"terms_accepted"`
	MarketingOptIn bool   `json:"marketing_opt_in"`
}

// SignupResult acknowledges a created account. Verification continues via
// OTP before a session token is issued.
type SignupResult struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// OTPType selects the delivery channel for a one-time password.
type OTPType string

const (
	OTPTypeEmail OTPType = "email"
	OTPTypePhone OTPType = "phone"
)

// OTPRequest asks the backend to send a one-time password.
type OTPRequest struct {
	EmailOrPhone string  `json:"email_or_phone" validate:"required"`
	OTPType      OTPType `json:"otp_type" validate:"required,oneof=email phone"`
}

// VerifyResult is the outcome of a successful OTP verification. The access
// token, when present, becomes the session credential.
type VerifyResult struct {
	Verified    bool   `json:"verified"`
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}
