// Command uatctl generates signing keys, issues UAT tokens, manages trust
// configurations and drives the two login legs from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/contentapi"
	"github.com/chimerakang/uat-go/controlplane"
	"github.com/chimerakang/uat-go/keys"
	"github.com/chimerakang/uat-go/token"
)

func main() {
	rootCmd, a := newRootCommand()
	err := rootCmd.ExecuteContext(context.Background())
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	auditPath  string
	debug      bool

	cfg    uat.Config
	logger *slog.Logger
	audit  *audit.Logger
	closer io.Closer
}

// newRootCommand builds the command tree. The caller must call teardown on
// the returned app once the command has finished.
func newRootCommand() (*cobra.Command, *app) {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "uatctl",
		Short: "Unified Access Token tooling",
		Long: `uatctl issues Unified Access Tokens and registers the trust configurations
that let Cloud Manager and the content API accept them.

Configuration is read from the file given by --config, or from the environment
(` + uat.EnvJWTIssuer + `, ` + uat.EnvTenantID + `, ` + uat.EnvPATLoginURL + `, ...).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (default: read from the environment).")
	rootCmd.PersistentFlags().StringVar(&a.auditPath, "audit-log", "", "Append audit events as JSON lines to this file.")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging.")

	addKeygenCommandTo(rootCmd, a)
	addScopesCommandTo(rootCmd, a)
	addTokenCommandTo(rootCmd, a)
	addLoginCommandTo(rootCmd, a)
	addConfigCommandTo(rootCmd, a)
	addRunCommandTo(rootCmd, a)

	return rootCmd, a
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var err error
	if a.configPath != "" {
		a.cfg, err = uat.LoadConfigFile(a.configPath)
	} else {
		a.cfg, err = uat.ConfigFromEnv()
	}
	if err != nil {
		return err
	}

	if a.auditPath != "" {
		f, err := os.OpenFile(a.auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		a.audit = audit.New(100, audit.WithWriterHandler(f))
		a.closer = f
	}
	return nil
}

func (a *app) teardown() error {
	defer func() { a.audit, a.closer = nil, nil }()
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	return errors.Join(errs...)
}

func (a *app) keyStore() *keys.Store {
	return keys.NewStore(a.cfg.KeyDir)
}

func (a *app) controlPlane() *controlplane.Client {
	return controlplane.New(a.cfg,
		controlplane.WithKeyProvider(a.keyStore()),
		controlplane.WithLogger(a.logger),
		controlplane.WithAuditLogger(a.audit),
	)
}

func (a *app) contentAPI() *contentapi.Client {
	return contentapi.New(a.cfg,
		contentapi.WithLogger(a.logger),
		contentapi.WithAuditLogger(a.audit),
	)
}

// client assembles a uat.Client from the configuration. The token issuer is
// only set when a private key is present.
func (a *app) client() (*uat.Client, error) {
	store := a.keyStore()
	opts := []uat.Option{
		uat.WithLogger(a.logger),
		uat.WithKeyProvider(store),
		uat.WithControlPlane(a.controlPlane()),
		uat.WithRegistrar(a.controlPlane()),
		uat.WithContentAPI(a.contentAPI()),
	}
	if priv, err := store.LoadPrivateKey(); err == nil {
		opts = append(opts, uat.WithTokenIssuer(token.NewBuilder(priv)))
	}
	return uat.NewClient(a.cfg, opts...)
}
