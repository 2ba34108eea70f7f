package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
	"github.com/kpcyrd/spotify-launcher/internal/pgp"
	"github.com/kpcyrd/spotify-launcher/internal/service/apt"
	"github.com/kpcyrd/spotify-launcher/internal/service/launcher"
	"github.com/kpcyrd/spotify-launcher/internal/service/updater"
	"github.com/kpcyrd/spotify-launcher/internal/transport"
	"github.com/kpcyrd/spotify-launcher/internal/ui"
	"github.com/kpcyrd/spotify-launcher/internal/version"
)

// options are the command line flags.
type options struct {
	configPath       string
	keyring          string
	localArchive     string
	installDir       string
	dataDir          string
	verbose          int
	checkUpdate      bool
	skipUpdate       bool
	forceUpdate      bool
	printURL         bool
	noExec           bool
	timeoutSeconds   uint64
	downloadAttempts int
}

// Execute runs the spotify-launcher CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic // stop already ran.
	}
}

// NewRootCommand builds the root command with its flags.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "spotify-launcher [uri]",
		Short:         "Install, update and start the spotify client",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var uri string
			if len(args) > 0 {
				uri = args[0]
			}

			ctx := cmd.Context()
			if err := run(ctx, cmd, opts, uri); err != nil {
				ui.ShowError(ctx, err)

				return err
			}

			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to configuration file")
	flags.StringVar(&opts.keyring, "keyring", "", "keyring used to verify the repository")
	flags.StringVar(&opts.localArchive, "deb", "", "install from a local .deb file instead of the repository")
	flags.StringVar(&opts.installDir, "install-dir", "", "use a different install directory")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory holding the installation and its state")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase logging output, twice adds caller information")
	flags.BoolVar(&opts.checkUpdate, "check-update", false, "check for updates even if the last check was recent")
	flags.BoolVar(&opts.skipUpdate, "skip-update", false, "do not check for updates")
	flags.BoolVar(&opts.forceUpdate, "force-update", false, "reinstall even if the latest version is installed")
	flags.BoolVar(&opts.printURL, "print-deb-url", false, "print the package URL and exit")
	flags.BoolVar(&opts.noExec, "no-exec", false, "do not start spotify after updating")
	flags.Uint64Var(&opts.timeoutSeconds, "timeout", 0, "network timeout in seconds, 0 disables it")
	flags.IntVar(&opts.downloadAttempts, "download-attempts", 0, "give up after this many attempts, 0 retries forever")

	version.AttachCobraVersion(rootCmd)

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, uri string) error {
	setupLogging(opts.verbose)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlags(cmd, opts, cfg)

	paths, err := resolvePaths(opts)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Resolved paths", "install", paths.Install, "state", paths.State)

	source, err := newSource(ctx, cfg, opts)
	if err != nil {
		return err
	}

	reporter := ui.NewReporter(ctx)

	result, err := updater.Run(ctx, &updater.Options{
		Flags: updater.Flags{
			CheckUpdate:  opts.checkUpdate,
			ForceUpdate:  opts.forceUpdate,
			SkipUpdate:   opts.skipUpdate,
			PrintURL:     opts.printURL,
			LocalArchive: opts.localArchive,
		},
		Config:   cfg,
		Paths:    paths,
		Source:   source,
		Reporter: reporter,
	})

	if closeErr := reporter.Close(); closeErr != nil {
		logger.Debugf(ctx, "Failed to close progress display: %v", closeErr)
	}

	if err != nil {
		return err
	}

	if opts.printURL {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.URL)

		return err
	}

	if opts.noExec {
		logger.Info(ctx, "Skipping exec because --no-exec was used")

		return nil
	}

	argv := launcher.Command(paths.Install, cfg.Spotify.ExtraArguments, uri)

	return launcher.Exec(ctx, argv, launcher.Environ(ctx, cfg.Spotify.ExtraEnvVars))
}

// applyFlags lets explicitly set flags override the configuration.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()

	if opts.keyring != "" {
		cfg.Spotify.Keyring = opts.keyring
	}

	if flags.Changed("download-attempts") && opts.downloadAttempts >= 0 {
		cfg.Spotify.DownloadAttempts = opts.downloadAttempts
	}

	if flags.Changed("timeout") {
		timeout := time.Duration(opts.timeoutSeconds) * time.Second
		cfg.Spotify.Timeout = &timeout
	}

	if cfg.Spotify.SkipUpdate {
		opts.skipUpdate = true
	}
}

func resolvePaths(opts *options) (*config.Paths, error) {
	dataDir := opts.dataDir
	if dataDir == "" {
		dir, err := config.DataDir()
		if err != nil {
			return nil, err
		}

		dataDir = dir
	}

	return config.NewPaths(dataDir, opts.installDir), nil
}

// newSource wires the repository client. A local archive needs none.
//
//nolint:nilnil,ireturn // No source is the valid answer for --deb.
func newSource(ctx context.Context, cfg *config.Config, opts *options) (updater.PackageSource, error) {
	if opts.localArchive != "" && !opts.printURL {
		return nil, nil
	}

	var transportOpts []transport.Option
	if cfg.Spotify.Timeout != nil {
		transportOpts = append(transportOpts, transport.WithTimeout(*cfg.Spotify.Timeout))
	}

	verifier, err := pgp.New(ctx, cfg.Spotify.Verifier)
	if err != nil {
		return nil, err
	}

	return apt.New(transport.New(transportOpts...), verifier, cfg.Repository), nil
}

func setupLogging(verbose int) {
	if verbose > 1 {
		logger.SetLogger(logger.Logger().WithOptions(zap.AddCaller()))
	}

	logger.SetLevel(logger.LevelForVerbosity(verbose))
}
