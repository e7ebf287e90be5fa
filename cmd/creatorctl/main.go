// creatorctl drives the creator-onboarding flow from a terminal: signup,
// OTP verification, onboarding status, and display-name checks. It exists
// mainly as a wiring reference and a manual test harness for the SDK.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/application/apiclient"
	identityapp "github.com/creatorly/creator-sdk/internal/application/identity"
	onboardingapp "github.com/creatorly/creator-sdk/internal/application/onboarding"
	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/config"
	"github.com/creatorly/creator-sdk/internal/infrastructure/logger"
	"github.com/creatorly/creator-sdk/internal/infrastructure/persistence"
	"github.com/creatorly/creator-sdk/internal/infrastructure/ratelimit"
	"github.com/creatorly/creator-sdk/internal/infrastructure/session"
	"github.com/creatorly/creator-sdk/internal/infrastructure/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	cache, err := persistence.Open(cfg.State.CachePath)
	if err != nil {
		log.Fatal("Failed to open state cache", zap.Error(err))
	}
	defer cache.Close()

	sess := session.NewStore()
	if token, ok, loadErr := cache.LoadToken(); loadErr == nil && ok {
		sess.Set(token)
	}
	sess.OnInvalidated(func() {
		// A resurrected dead credential on the next run helps nobody.
		if clearErr := cache.ClearToken(); clearErr != nil {
			log.Debug("failed to clear cached token", zap.Error(clearErr))
		}
		log.Warn("Session invalidated; sign in again")
	})

	tracker, closeTracker := newTracker(cfg, log)
	defer closeTracker()

	gateway := transport.NewGateway(sess, tracker, log.Named("gateway"), transport.Options{
		Timeout:       cfg.API.Timeout,
		RateLimit:     cfg.API.RateLimitThreshold,
		ClientName:    cfg.Client.Name,
		ClientVersion: cfg.Client.Version,
	})
	caller := apiclient.NewCaller(gateway, cfg.API.BaseURL)

	signup := identityapp.NewSignupService(caller, sess, log.Named("identity"))
	client := onboardingapp.NewClient(caller, log.Named("onboarding"))
	flow := onboardingapp.NewFlow(client, cache, log.Named("flow"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "status":
		flow.Load(ctx)
		printJSON(flow.Progress().ToSnapshot())
	case "check-name":
		requireArgs(3, "check-name <display-name>")
		check, err := client.CheckDisplayName(ctx, os.Args[2])
		exitOn(err)
		printJSON(check)
	case "signup":
		requireArgs(6, "signup <email> <phone> <full-name> <date-of-birth>")
		fmt.Fprint(os.Stderr, "Password: ")
		var password string
		fmt.Scanln(&password)
		result, err := signup.Signup(ctx, identityapp.SignupInput{
			Email:         os.Args[2],
			Phone:         os.Args[3],
			FullName:      os.Args[4],
			DateOfBirth:   os.Args[5],
			Password:      password,
			Role:          "creator",
			TermsAccepted: true,
		})
		exitOn(err)
		printJSON(result)
	case "request-otp":
		requireArgs(4, "request-otp <email|phone> <destination>")
		err := signup.RequestOTP(ctx, identityapp.OTPRequest{
			EmailOrPhone: os.Args[3],
			OTPType:      identityapp.OTPType(os.Args[2]),
		})
		exitOn(err)
		fmt.Println("Code sent.")
	case "verify-otp":
		requireArgs(5, "verify-otp <email|phone> <destination> <code>")
		result, err := signup.VerifyOTP(ctx, identityapp.OTPType(os.Args[2]), os.Args[3], os.Args[4])
		exitOn(err)
		if result.AccessToken != "" {
			if err := cache.SaveToken(result.AccessToken); err != nil {
				log.Debug("failed to cache token", zap.Error(err))
			}
		}
		printJSON(result)
	case "logout":
		signup.Logout()
		exitOn(cache.ClearToken())
		fmt.Println("Signed out.")
	default:
		usage()
		os.Exit(2)
	}
}

// newTracker picks the Redis-backed tracker when one is configured,
// otherwise the in-process window.
func newTracker(cfg *config.Config, log *zap.Logger) (ratelimit.Tracker, func()) {
	if cfg.Redis.Enabled() {
		tracker, err := ratelimit.NewRedisTracker(ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.API.RateLimitWindow)
		if err == nil {
			return tracker, func() { tracker.Close() }
		}
		log.Warn("Redis tracker unavailable, falling back to in-memory", zap.Error(err))
	}
	return ratelimit.NewInMemoryTracker(cfg.API.RateLimitWindow), func() {}
}

func requireArgs(n int, form string) {
	if len(os.Args) < n {
		fmt.Fprintf(os.Stderr, "usage: creatorctl %s\n", form)
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, shared.UserMessage(err))
		os.Exit(1)
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: creatorctl <command>

commands:
  status                                        show onboarding progress
  check-name <display-name>                     check display-name availability
  signup <email> <phone> <full-name> <dob>      create an account
  request-otp <email|phone> <destination>       send a verification code
  verify-otp <email|phone> <destination> <code> verify and sign in
  logout                                        clear the saved session`)
}
