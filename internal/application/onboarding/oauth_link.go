package onboarding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/oauth"
)

// LinkPlatformOAuth links a social platform through its authorization
// flow: it waits for the provider redirect on the loopback listener, then
// submits the resolved code. The whole dance is one blocking operation
// that settles with the linked record or a classified failure.
func (c *Client) LinkPlatformOAuth(ctx context.Context, listener *oauth.Listener, platform, handle, state string) (LinkedPlatform, error) {
	c.logger.Info("waiting for platform authorization",
		zap.String("platform", platform),
		zap.String("redirect_url", listener.RedirectURL()),
	)

	result, err := listener.Wait(ctx, state)
	if err != nil {
		return LinkedPlatform{}, classifyOAuthWait(err, listener.RedirectURL())
	}

	return c.SubmitSinglePlatform(ctx, platform, handle, result.Code)
}

// classifyOAuthWait maps listener outcomes onto the failure taxonomy.
func classifyOAuthWait(err error, redirectURL string) error {
	switch {
	case errors.Is(err, oauth.ErrStateMismatch):
		return shared.NewInvalidRequest("Authorization state did not match; the attempt was discarded. Retry the link.").WithCause(err)
	case errors.Is(err, oauth.ErrMissingCode):
		return shared.NewInvalidRequest("Authorization was not granted. Retry the link and approve access.").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return shared.NewTimeout(redirectURL, 0).WithCause(err)
	case errors.Is(err, context.Canceled):
		return shared.NewCancelled(redirectURL).WithCause(err)
	default:
		return shared.NewNetworkUnreachable(redirectURL, err)
	}
}
