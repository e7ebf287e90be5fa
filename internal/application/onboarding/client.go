// Package onboarding exposes the typed step-submission operations and
// status queries of the creator-onboarding flow, built atop the request
// gateway. Each operation encodes the right body (JSON or multipart),
// executes the call, and translates the outcome into a success value or a
// classified failure.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/application/apiclient"
	"github.com/creatorly/creator-sdk/internal/domain/onboarding"
	"github.com/creatorly/creator-sdk/internal/domain/shared"
)

// Endpoint paths under the API base URL.
const (
	pathStatus              = "/creator/onboarding/status"
	pathDisplayNameCheck    = "/creator/onboarding/display-name/check/"
	pathBasicProfile        = "/creator/onboarding/step1/basic-profile"
	pathSocialMedia         = "/creator/onboarding/step2/social-media"
	pathNichePreferences    = "/creator/onboarding/step3/niche-preferences"
	pathPortfolio           = "/creator/onboarding/step4/portfolio"
	pathVerification        = "/creator/onboarding/step5/verification"
	pathPlatformPreferences = "/creator/onboarding/step6/platform-preferences"
)

var displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._]{2,29}$`)

// Client is the typed onboarding API client.
type Client struct {
	caller   *apiclient.Caller
	validate *validator.Validate
	logger   *zap.Logger
}

// NewClient creates an onboarding client on top of a caller.
func NewClient(caller *apiclient.Caller, logger *zap.Logger) *Client {
	validate := validator.New()
	validate.RegisterValidation("display_name", func(fl validator.FieldLevel) bool {
		return displayNamePattern.MatchString(fl.Field().String())
	})

	return &Client{
		caller:   caller,
		validate: validate,
		logger:   logger,
	}
}

// GetStatus fetches the backend-authoritative onboarding snapshot.
func (c *Client) GetStatus(ctx context.Context) (onboarding.Snapshot, error) {
	decoded, err := c.caller.Get(ctx, pathStatus)
	if err != nil {
		return onboarding.Snapshot{}, err
	}

	var snap onboarding.Snapshot
	if err := decoded.Into(&snap); err != nil {
		return onboarding.Snapshot{}, shared.NewDecodeFailure(pathStatus, err)
	}
	return snap, nil
}

// CheckDisplayName asks whether a display name is available, returning
// alternative suggestions when it is taken. A malformed name is a local
// validation failure and is never sent to the network.
func (c *Client) CheckDisplayName(ctx context.Context, name string) (DisplayNameCheck, error) {
	if !displayNamePattern.MatchString(name) {
		return DisplayNameCheck{}, localValidationFailure([]shared.FieldError{{
			Field:   "display_name",
			Message: "Display names are 3-30 characters: letters, digits, dots, or underscores, starting with a letter or digit.",
		}})
	}

	decoded, err := c.caller.Get(ctx, pathDisplayNameCheck+name)
	if err != nil {
		return DisplayNameCheck{}, err
	}

	var check DisplayNameCheck
	if err := decoded.Into(&check); err != nil {
		return DisplayNameCheck{}, shared.NewDecodeFailure(pathDisplayNameCheck, err)
	}
	return check, nil
}

// SubmitStep submits the payload for step n. The payload type must match
// the step: BasicProfile, SocialMediaLink, NichePreferences, Portfolio,
// Verification, or PlatformPreferences.
func (c *Client) SubmitStep(ctx context.Context, step int, payload any) (StepAck, error) {
	switch step {
	case onboarding.StepBasicProfile:
		p, ok := payload.(BasicProfile)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "BasicProfile")
		}
		return c.SubmitBasicProfile(ctx, p)
	case onboarding.StepSocialMedia:
		p, ok := payload.(SocialMediaLink)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "SocialMediaLink")
		}
		return c.SubmitSocialMedia(ctx, p)
	case onboarding.StepNichePreferences:
		p, ok := payload.(NichePreferences)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "NichePreferences")
		}
		return c.submitJSONStep(ctx, step, pathNichePreferences, p)
	case onboarding.StepPortfolio:
		p, ok := payload.(Portfolio)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "Portfolio")
		}
		return c.submitJSONStep(ctx, step, pathPortfolio, p)
	case onboarding.StepVerification:
		p, ok := payload.(Verification)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "Verification")
		}
		return c.SubmitVerification(ctx, p)
	case onboarding.StepPlatformPreferences:
		p, ok := payload.(PlatformPreferences)
		if !ok {
			return StepAck{}, payloadTypeFailure(step, "PlatformPreferences")
		}
		return c.submitJSONStep(ctx, step, pathPlatformPreferences, p)
	default:
		return StepAck{}, shared.NewInvalidRequest(fmt.Sprintf("onboarding has no step %d", step))
	}
}

// SubmitBasicProfile submits step 1 as a multipart form; the profile
// picture travels as a file part and languages as a JSON-encoded field.
func (c *Client) SubmitBasicProfile(ctx context.Context, profile BasicProfile) (StepAck, error) {
	if err := c.validateStruct(profile); err != nil {
		return StepAck{}, err
	}

	decoded, err := c.caller.PostMultipart(ctx, pathBasicProfile, func(w *multipart.Writer) error {
		languages, err := json.Marshal(profile.LanguagesSpoken)
		if err != nil {
			return err
		}
		fields := map[string]string{
			"display_name":     profile.DisplayName,
			"gender":           profile.Gender,
			"country":          profile.Country,
			"timezone":         profile.Timezone,
			"languages_spoken": string(languages),
		}
		if profile.City != "" {
			fields["city"] = profile.City
		}
		if profile.Bio != "" {
			fields["bio"] = profile.Bio
		}
		for name, value := range fields {
			if err := w.WriteField(name, value); err != nil {
				return err
			}
		}
		if profile.ProfilePicture != nil {
			return writeFilePart(w, "profile_picture", *profile.ProfilePicture)
		}
		return nil
	})
	if err != nil {
		return StepAck{}, err
	}
	return stepAck(decoded.Into, onboarding.StepBasicProfile)
}

// SubmitSocialMedia submits step 2 for one platform.
func (c *Client) SubmitSocialMedia(ctx context.Context, link SocialMediaLink) (StepAck, error) {
	if err := c.validateStruct(link); err != nil {
		return StepAck{}, err
	}
	return c.submitJSONStep(ctx, onboarding.StepSocialMedia, pathSocialMedia, link)
}

// SubmitSinglePlatform links one social platform. The operation is
// idempotent per platform: re-submitting replaces the prior link on the
// backend rather than duplicating it.
func (c *Client) SubmitSinglePlatform(ctx context.Context, platform, handle, oauthCode string) (LinkedPlatform, error) {
	source := "manual"
	if oauthCode != "" {
		source = "oauth"
	}
	link := SocialMediaLink{
		Platform:  strings.ToLower(platform),
		Handle:    handle,
		OAuthCode: oauthCode,
		Source:    source,
	}
	if err := c.validateStruct(link); err != nil {
		return LinkedPlatform{}, err
	}

	decoded, err := c.caller.PostJSON(ctx, pathSocialMedia, link)
	if err != nil {
		return LinkedPlatform{}, err
	}

	var record LinkedPlatform
	if err := decoded.Into(&record); err != nil {
		return LinkedPlatform{}, shared.NewDecodeFailure(pathSocialMedia, err)
	}
	if record.Platform == "" {
		record.Platform = link.Platform
		record.Handle = link.Handle
	}
	return record, nil
}

// SubmitVerification submits step 5 as a multipart form carrying the
// identity documents.
func (c *Client) SubmitVerification(ctx context.Context, verification Verification) (StepAck, error) {
	if err := c.validateStruct(verification); err != nil {
		return StepAck{}, err
	}
	if len(verification.Documents) == 0 {
		return StepAck{}, localValidationFailure([]shared.FieldError{{
			Field:   "documents",
			Message: "At least one identity document is required.",
		}})
	}

	decoded, err := c.caller.PostMultipart(ctx, pathVerification, func(w *multipart.Writer) error {
		if err := w.WriteField("document_type", verification.DocumentType); err != nil {
			return err
		}
		for _, doc := range verification.Documents {
			if doc.FieldName == "" {
				doc.FieldName = "documents"
			}
			if err := writeFilePart(w, doc.FieldName, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return StepAck{}, err
	}
	return stepAck(decoded.Into, onboarding.StepVerification)
}

// submitJSONStep validates and posts a JSON step payload.
func (c *Client) submitJSONStep(ctx context.Context, step int, path string, payload any) (StepAck, error) {
	if err := c.validateStruct(payload); err != nil {
		return StepAck{}, err
	}
	decoded, err := c.caller.PostJSON(ctx, path, payload)
	if err != nil {
		return StepAck{}, err
	}
	return stepAck(decoded.Into, step)
}

// validateStruct runs local validation and converts violations into a
// classified failure that never reaches the network.
func (c *Client) validateStruct(payload any) error {
	err := c.validate.Struct(payload)
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
	return localValidationFailure(fields)
}

// localValidationFailure builds the failure for input rejected before any
// network activity.
func localValidationFailure(fields []shared.FieldError) *shared.Failure {
	failure := shared.NewInvalidRequest("Some fields are invalid. Fix them and try again.")
	failure.Fields = fields
	return failure
}

func payloadTypeFailure(step int, want string) *shared.Failure {
	return shared.NewInvalidRequest(fmt.Sprintf("step %d expects a %s payload", step, want))
}

// stepAck decodes an acknowledgment, defaulting the step number when the
// backend omits it.
func stepAck(into func(any) error, step int) (StepAck, error) {
	var ack StepAck
	if err := into(&ack); err != nil {
		return StepAck{}, shared.NewDecodeFailure("", err)
	}
	if ack.Step == 0 {
		ack.Step = step
	}
	return ack, nil
}

// writeFilePart adds one file to a multipart form.
func writeFilePart(w *multipart.Writer, field string, file FileUpload) error {
	part, err := w.CreateFormFile(field, file.FileName)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Content)
	return err
}
