// config/config.go
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/tsamuels62019/myanchor-daily-digest/utils"
)

// Config is the whole process configuration, read once at startup and passed
// by parameter from main. Nothing else in the service touches the
// environment.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_PHONE_NUMBER"`

	MessageBody string `envconfig:"DIGEST_MESSAGE_BODY" default:"Your MyAnchor daily digest is ready! Check your email for today's update."`

	// Local-time delivery window, inclusive at both edges.
	WindowStart string `envconfig:"DIGEST_WINDOW_START" default:"19:00"`
	WindowEnd   string `envconfig:"DIGEST_WINDOW_END" default:"19:09"`

	// ForceSend bypasses the window check but never the idempotency check.
	ForceSend bool `envconfig:"FORCE_SEND" default:"false"`
	// OnlyEmail limits a manual run to a single subscriber (case-insensitive).
	OnlyEmail string `envconfig:"DIGEST_ONLY_EMAIL"`

	// Serve mode only.
	Schedule string `envconfig:"DIGEST_SCHEDULE" default:"*/5 * * * *"`
	Port     string `envconfig:"PORT" default:"8080"`
	OpsToken string `envconfig:"OPS_API_TOKEN"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`

	Window utils.Window `ignored:"true"` // parsed from WindowStart/WindowEnd
}

// Load reads the environment into a Config and validates the delivery
// window. Missing required values and malformed windows are startup errors;
// the process must exit non-zero before doing any work.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	start, err := utils.ParseClock(cfg.WindowStart)
	if err != nil {
		return cfg, fmt.Errorf("DIGEST_WINDOW_START: %w", err)
	}
	end, err := utils.ParseClock(cfg.WindowEnd)
	if err != nil {
		return cfg, fmt.Errorf("DIGEST_WINDOW_END: %w", err)
	}
	if end.Minutes() < start.Minutes() {
		return cfg, fmt.Errorf("digest window end %s precedes start %s; the window must not wrap midnight", end, start)
	}
	cfg.Window = utils.Window{Start: start, End: end}

	return cfg, nil
}
