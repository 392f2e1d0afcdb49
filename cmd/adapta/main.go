package main

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tb0hdan/adapta-history/pkg/auth"
	"github.com/tb0hdan/adapta-history/pkg/client"
	"github.com/tb0hdan/adapta-history/pkg/config"
	"github.com/tb0hdan/adapta-history/pkg/events"
)

const (
	ServerName      = "adapta-history"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

// app carries what every command needs once flags and config are resolved.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  zerolog.Logger
	version string
	hub     *events.Hub
	session *auth.Session
}

func main() {
	a := &app{
		v:       config.New(),
		version: strings.TrimSpace(Version),
		hub:     events.NewHub(),
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.rootCmd().ExecuteContext(signalCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

func (a *app) rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           ServerName,
		Short:         "Tool usage history for the Adapta AI tool catalog",
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ./adapta.yaml)")
	flags.Bool("debug", false, "debug mode")
	flags.String("api", config.DefaultBaseURL, "history and generation backend base URL")
	flags.String("user", "", "user id to act as")
	flags.String("token", "", "access token to sign in with")
	_ = a.v.BindPFlag("log.debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("api.base_url", flags.Lookup("api"))
	_ = a.v.BindPFlag("auth.user_id", flags.Lookup("user"))
	_ = a.v.BindPFlag("auth.token", flags.Lookup("token"))

	root.AddCommand(a.serveCmd(), a.historyCmd(), a.generateCmd(), a.toolsCmd(), a.upgradeCmd())
	return root
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(a.v, configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Log.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		a.logger.Debug().Msg("debug mode enabled")
	}

	a.session = auth.NewSession(cfg.Auth.JWTSecret)
	switch {
	case cfg.Auth.Token != "":
		if _, err := a.session.SignInWithToken(cfg.Auth.Token); err != nil {
			return fmt.Errorf("sign in failed: %w", err)
		}
	case cfg.Auth.UserID != "":
		a.session.SignIn(auth.User{ID: cfg.Auth.UserID})
	}
	return nil
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.API.Timeout}
}

func (a *app) historyClient() *client.HistoryClient {
	return client.New(client.Config{
		BaseURL:    a.cfg.API.BaseURL,
		HTTPClient: a.httpClient(),
		Token:      func(context.Context) string { return a.session.Token() },
	}, a.logger)
}
