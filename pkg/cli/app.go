package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bidster/bidster/pkg/api"
	"github.com/bidster/bidster/pkg/bidster"
	"github.com/bidster/bidster/pkg/cliconfig"
	"github.com/bidster/bidster/pkg/logging"
	"github.com/bidster/bidster/pkg/session"
)

// app is the per-invocation wiring shared by the commands: effective
// configuration, logger, session and marketplace service.
type app struct {
	cmd    *cobra.Command
	cfg    *cliconfig.CLIConfig
	logger *slog.Logger
	sess   *session.Session
	svc    *bidster.Service
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	trace  io.Closer
}

// loadConfig resolves the configuration and applies the persistent flags
// on top of it.
func loadConfig() (*cliconfig.CLIConfig, error) {
	cfg, err := cliconfig.LoadAll()
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
		cfg.Sources["baseUrl"] = cliconfig.SourceFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		cfg.Sources["logLevel"] = cliconfig.SourceFlag
	}
	if jsonOutput {
		cfg.JSON = true
		cfg.Sources["json"] = cliconfig.SourceFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSession opens the stored session. BIDSTER_TOKEN replaces it with an
// in-memory one so the stored session is left untouched.
func newSession() (*session.Session, error) {
	if tok := cliconfig.TokenFromEnv(); tok != "" {
		sess := session.New(session.NewMemoryStore())
		if err := sess.SetToken(tok); err != nil {
			return nil, err
		}
		return sess, nil
	}
	dir, err := cliconfig.ConfigDir()
	if err != nil {
		return nil, err
	}
	sess := session.New(session.NewFileStore(dir))
	if err := sess.Load(); err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return sess, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	}
	var trace *os.File
	if traceFile != "" {
		trace, err = os.OpenFile(traceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		logCfg.Trace = trace
	}
	logger := logging.New(logCfg)

	sess, err := newSession()
	if err != nil {
		if trace != nil {
			_ = trace.Close()
		}
		return nil, err
	}

	client := api.New(cfg.APIURL(),
		api.WithTimeout(cfg.TimeoutDuration()),
		api.WithTokenSource(api.TokenFunc(sess.Token)),
		api.WithLogger(logger),
		api.WithUserAgent("bidster-cli/"+Version),
	)

	a := &app{
		cmd:    cmd,
		cfg:    cfg,
		logger: logger,
		sess:   sess,
		svc:    bidster.NewService(client, sess, bidster.WithLogger(logger)),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
	}
	if trace != nil {
		a.trace = trace
	}
	return a, nil
}

// close releases the service's background work and the trace file.
func (a *app) close() {
	a.svc.Close()
	if a.trace != nil {
		_ = a.trace.Close()
	}
}

// withApp adapts a command body that needs the app to cobra's RunE. The
// session is cleared when the server rejects the stored token.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		err = fn(cmd.Context(), a, args)
		if err != nil && isRejectedToken(err) {
			if clearErr := a.sess.Clear(); clearErr != nil {
				a.logger.Warn("failed to clear session", "error", clearErr)
			}
		}
		return err
	}
}
