package cli

import (
	"errors"

	"taskpilot/gateway/pkg/providers"
)

// Exit codes returned by the taskpilot command, so scripts can distinguish
// misconfiguration from transient provider failures.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitProvider  = 3
	ExitTransient = 4
)

// ExitCode maps an error onto the command's exit-code contract.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		config      *providers.ConfigError
		validation  *providers.ValidationError
		unsupported *providers.UnsupportedError
		rateLimit   *providers.RateLimitError
		server      *providers.ServerError
		transport   *providers.TransportError
		client      *providers.ClientError
		parse       *providers.ParseError
		stream      *providers.StreamError
	)
	switch {
	case errors.As(err, &config), errors.As(err, &validation):
		return ExitConfig
	case errors.As(err, &rateLimit), errors.As(err, &server), errors.As(err, &transport):
		return ExitTransient
	case errors.As(err, &unsupported), errors.As(err, &client), errors.As(err, &parse), errors.As(err, &stream):
		return ExitProvider
	default:
		return ExitFailure
	}
}
