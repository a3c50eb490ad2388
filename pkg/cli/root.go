package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/client"
	"github.com/riskdesk/ews-console/pkg/config"
	"github.com/riskdesk/ews-console/pkg/drafts"
	"github.com/riskdesk/ews-console/pkg/logging"
	"github.com/riskdesk/ews-console/pkg/services"
	"github.com/riskdesk/ews-console/pkg/session"
)

// sessionKey is the draft-store key holding the login token between CLI
// invocations. The process is ephemeral, the session is not.
const sessionKey = "session"

type storedSession struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// app wires the shared collaborators every command uses.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *client.Client
	store  *drafts.Store
	rules  *services.RulesService
	events *services.EventsService
}

// Execute runs the ews CLI.
func Execute(version string) error {
	var (
		a          app
		configPath string
	)

	root := &cobra.Command{
		Use:           "ews",
		Short:         "Early Warning System console",
		Long:          "ews imports Excel rulebooks and event logs, fuzzy-matches events against the rule catalog, and reconciles the working table with the EWS backend.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), configPath, version)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")

	root.AddCommand(
		newLoginCmd(&a),
		newLogoutCmd(&a),
		newRulesCmd(&a),
		newEventsCmd(&a),
		newAlertsCmd(&a),
		newNotificationsCmd(&a),
	)

	return root.Execute()
}

func (a *app) init(ctx context.Context, configPath, version string) error {
	cfg, err := config.Load(configPath, version)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger

	store, err := drafts.Open(cfg.DraftStorePath)
	if err != nil {
		return err
	}
	a.store = store

	a.client = client.New(cfg.APIBaseURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, logger)
	a.restoreSession(ctx)

	a.rules = services.NewRulesService(a.client, store, logger)
	a.events = services.NewEventsService(a.client, a.rules, store, logger)
	return nil
}

// restoreSession rebuilds the login context saved by a previous `ews login`.
// An expired token is dropped; the server would reject it anyway.
func (a *app) restoreSession(ctx context.Context) {
	var stored storedSession
	ok, err := a.store.Load(ctx, sessionKey, &stored)
	if err != nil || !ok || stored.Token == "" {
		return
	}

	sess := session.New(stored.Token, stored.Email)
	if sess.Expired() {
		_ = a.store.Clear(ctx, sessionKey)
		return
	}
	a.client.SetSession(sess)
}

// requireSession guards commands that write to the backend. Reads would fail
// server-side anyway; failing early here gives a cleaner message.
func (a *app) requireSession() error {
	if !a.client.Session().Valid() {
		return fmt.Errorf("%w: run `ews login` first", apperrors.ErrNoSession)
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
