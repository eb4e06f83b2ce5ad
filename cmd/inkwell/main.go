package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/whitelex/ai-writer-assistant/internal/client"
	"github.com/whitelex/ai-writer-assistant/internal/config"
	"github.com/whitelex/ai-writer-assistant/internal/logging"
	"go.uber.org/zap"
)

// studio bundles the client-side collaborators every subcommand needs.
type studio struct {
	cfg      config.StudioConfig
	logger   *zap.Logger
	remote   *client.Remote
	sessions *client.SessionStore
	fallback *client.FallbackStore
}

func (s *studio) persistence() (*client.Client, error) {
	return client.NewClient(client.Config{
		Remote:   s.remote,
		Fallback: s.fallback,
		Logger:   s.logger,
	})
}

func (s *studio) session() (client.Session, error) {
	return s.sessions.Load()
}

func main() {
	app := &studio{}

	rootCmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "Inkwell writing studio client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadStudio(viper.GetViper())
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			app.cfg = cfg
			app.logger = logger
			app.remote = client.NewRemote(client.RemoteConfig{BaseURL: cfg.APIBaseURL})
			app.sessions = client.NewSessionStore(cfg.StudioDir)
			app.fallback = client.NewFallbackStore(cfg.StudioDir)
			return nil
		},
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		newSignupCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newBooksCommand(app),
		newAddBookCommand(app),
		newAddChapterCommand(app),
		newWriteCommand(app),
		newEditCommand(app),
		newGrammarCommand(app),
		newExpandCommand(app),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().String("api-url", defaults.GetString("api.base_url"), "Studio API base URL")
	cmd.PersistentFlags().String("studio-dir", defaults.GetString("studio.dir"), "Directory for session and fallback storage")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "api.base_url", "api-url")
	bindFlag(cmd, "studio.dir", "studio-dir")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}
