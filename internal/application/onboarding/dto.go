package onboarding

import "time"

// FileUpload is one file carried in a multipart submission.
type FileUpload struct {
	FieldName string // form field the backend expects
	FileName  string
	Content   []byte
}

// BasicProfile is the step 1 payload. The profile picture makes this a
// multipart submission.
type BasicProfile struct {
	DisplayName     string   `validate:"required,display_name"`
	Gender          string   `validate:"required,oneof=female male non_binary prefer_not_to_say"`
	Country         string   `validate:"required,iso3166_1_alpha2"`
	Timezone        string   `validate:"required"`
	LanguagesSpoken []string `validate:"required,min=1,dive,required"`
	City            string
	Bio             string `validate:"max=500"`
	ProfilePicture  *FileUpload
}

// SocialMediaLink is the step 2 payload for linking one platform. Source
// records how the handle was obtained ("manual" or "oauth").
type SocialMediaLink struct {
	Platform  string `json:"platform" validate:"required,oneof=instagram tiktok youtube twitch x"`
	Handle    string `json:"handle" validate:"required,min=2,max=64"`
	OAuthCode string `json:"oauthCode,omitempty"`
	State     string `json:"state,omitempty"`
	Source    string `json:"source" validate:"required,oneof=manual oauth"`
}

// NichePreferences is the step 3 payload.
type NichePreferences struct {
	Niches       []string `json:"niches" validate:"required,min=1,max=5,dive,required"`
	ContentTypes []string `json:"content_types" validate:"required,min=1,dive,required"`
}

// PortfolioItem is one piece of prior work in the step 4 payload.
type PortfolioItem struct {
	Title       string `json:"title" validate:"required,max=120"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"max=500"`
}

// Portfolio is the step 4 payload.
type Portfolio struct {
	Items []PortfolioItem `json:"items" validate:"required,min=1,dive"`
}

// Verification is the step 5 payload. Identity documents make this a
// multipart submission.
type Verification struct {
	DocumentType string `validate:"required,oneof=passport national_id drivers_license"`
	Documents    []FileUpload
}

// PlatformPreferences is the step 6 payload.
type PlatformPreferences struct {
	CampaignTypes     []string `json:"campaign_types" validate:"required,min=1,dive,required"`
	PreferredBrands   []string `json:"preferred_brands,omitempty"`
	ContactEmailOptIn bool     `json:"contact_email_opt_in"`
	WeeklyDigestOptIn bool     `json:"weekly_digest_opt_in"`
}

// DisplayNameCheck is the availability answer for a display name.
type DisplayNameCheck struct {
	Available             bool     `json:"available"`
	SuggestedAlternatives []string `json:"suggested_alternatives"`
}

// StepAck is the backend's acknowledgment of a step submission.
type StepAck struct {
	ID      string `json:"id"`
	Step    int    `json:"step"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LinkedPlatform is the stored record for one linked social platform.
// Re-linking the same platform replaces the prior record.
type LinkedPlatform struct {
	Platform string    `json:"platform"`
	Handle   string    `json:"handle"`
	Verified bool      `json:"verified"`
	LinkedAt time.Time `json:"linked_at"`
}
