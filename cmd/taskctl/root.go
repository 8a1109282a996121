package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskboard/internal/apiclient"
	"github.com/taskboard/internal/auth"
	"github.com/taskboard/internal/config"
	"github.com/taskboard/internal/logger"
	"github.com/taskboard/internal/session"
	"github.com/taskboard/internal/tasks"
)

// app is everything a command needs, built once per invocation
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *session.Manager
	client  *apiclient.Client
	auth    *auth.Service
	tasks   *tasks.Service
}

func newApp(stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	appLogger := logger.New(stderr, cfg.Environment, logger.JSONPreferred(cfg.Environment, cfg.LogJSON))

	sess, err := session.NewManager(cfg.API.BaseURL,
		session.WithStore(session.NewFileStore(cfg.SessionFile)),
		session.WithLogger(appLogger),
		session.WithNavigator(func(string) {
			fmt.Fprintln(stderr, "session expired, run `taskctl login`")
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := sess.Restore(); err != nil {
		appLogger.Warn("taskctl: could not restore session", "path", cfg.SessionFile, "error", err)
	}

	clientCfg := apiclient.DefaultConfig()
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.Timeout = cfg.API.Timeout
	client, err := apiclient.New(clientCfg, sess, appLogger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  appLogger,
		session: sess,
		client:  client,
		auth:    auth.NewService(client, appLogger),
		tasks:   tasks.NewService(client, appLogger),
	}, nil
}

func newRootCmd() *cobra.Command {
	var a *app

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your task board from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			a = built
			return nil
		},
	}

	// Commands resolve the app lazily; it only exists after PersistentPreRunE.
	get := func() *app { return a }

	rootCmd.AddCommand(newLoginCmd(get))
	rootCmd.AddCommand(newRegisterCmd(get))
	rootCmd.AddCommand(newLogoutCmd(get))
	rootCmd.AddCommand(newWhoamiCmd(get))
	rootCmd.AddCommand(newTasksCmd(get))

	return rootCmd
}
