package cli

import (
	"errors"
	"strings"

	"github.com/bidster/bidster/pkg/api"
	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/cliconfig"
)

// Common CLI errors
var (
	ErrMissingCredentials = errors.New("username and password are required (use --username and --password)")
	ErrInvalidID          = errors.New("listing ID must be a positive integer")
)

// rejectedTokenMessages are the server's responses to a missing or stale
// token. Other 401s, such as editing someone else's listing, keep the session.
var rejectedTokenMessages = []string{
	"Invalid token.",
	"Authentication credentials were not provided.",
}

func isRejectedToken(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	for _, msg := range rejectedTokenMessages {
		if apiErr.Message == msg {
			return true
		}
	}
	return false
}

// FormatError renders err for the terminal, adding a suggestion where the
// fix is known.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	var verr *bidster.ValidationError
	var cfgErr *cliconfig.ConfigError

	switch {
	case errors.As(err, &verr):
		b.WriteString("Error: invalid input")
		for _, f := range verr.Fields {
			b.WriteString("\n  ")
			b.WriteString(f.Field)
			b.WriteString(": ")
			b.WriteString(f.Message)
		}
		return b.String()

	case errors.Is(err, bidster.ErrUnauthenticated), isRejectedToken(err):
		b.WriteString("Error: ")
		b.WriteString(err.Error())
		b.WriteString("\n\nRun 'bidster login' to sign in.")
		return b.String()

	case api.IsKind(err, api.KindNetwork):
		b.WriteString("Error: ")
		b.WriteString(err.Error())
		b.WriteString("\n\nIs the server running? Check --base-url or ")
		b.WriteString(cliconfig.EnvBaseURL)
		b.WriteString(".")
		return b.String()

	case errors.As(err, &cfgErr):
		b.WriteString("Error: ")
		b.WriteString(err.Error())
		b.WriteString("\n\nFix the file or remove it to use the defaults.")
		return b.String()
	}

	return "Error: " + err.Error()
}
