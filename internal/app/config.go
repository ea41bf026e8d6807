package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ListenAddr is where the canvas endpoint, /health and /metrics are
	// served.
	ListenAddr string `validate:"required,hostname_port|tcp_addr"`
	// HealthcheckPort starts an additional /health-only server. 0 is
	// disabled.
	HealthcheckPort int `validate:"min=0,max=65535"`

	FlowPath string // seed flow file, optional
	SavePath string // saved flows are written here; empty logs them instead

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, configError(verrs)
		}
		return nil, err
	}
	return &cfg, nil
}

func configError(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is a required configuration field and cannot be empty", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "hostname_port|tcp_addr":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be host:port", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s %v: failed %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
