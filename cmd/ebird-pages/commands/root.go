package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ebird-pages/internal/components/configutil"
	"ebird-pages/internal/components/telemetry"
	"ebird-pages/internal/scrapers/ebird"

	"github.com/spf13/cobra"
)

const defaultConfig = "ebird-pages.json5"

type Config struct {
	BaseUrl        string               `json:"base_url"`
	UserAgent      string               `json:"user_agent"`
	TimeoutSeconds int                  `json:"timeout_seconds"`
	Otlp           telemetry.OtlpConfig `json:"otlp"`
	// default database for --db
	Db string `json:"db"`
}

// loadConfig reads the given file, the default file is optional and searched
// for from the working directory upwards.
func loadConfig(path string) (Config, error) {
	if path != defaultConfig {
		return configutil.ReadConfig[Config](path)
	}
	config, err := configutil.ReadRecursively[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "name", path)
		return Config{}, nil
	}
	return config, err
}

type env struct {
	Config    Config
	Client    ebird.Client
	Telemetry telemetry.Telemetry
	Tel       telemetry.API
}

// app is set up before any subcommand runs
var app *env

var (
	configPath string
	verbose    bool
	dumpHttp   string
)

var rootCmd = &cobra.Command{
	Use:           "ebird-pages",
	Short:         "ebird-pages extracts checklists from the pages of the eBird web site.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(cmd.ErrOrStderr(), verbose)

		config, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		tel, err := telemetry.Setup(cmd.Context(), "ebird-pages", config.Otlp)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		api := telemetry.NewSlogAPI()

		var output telemetry.MessageOutput
		if dumpHttp != "" {
			fsOutput, err := telemetry.NewFilesystemOutput(dumpHttp)
			if err != nil {
				return fmt.Errorf("http dump directory: %w", err)
			}
			output = fsOutput
		}

		client, err := ebird.NewClient(ebird.ClientOptions{
			BaseUrl:   config.BaseUrl,
			UserAgent: config.UserAgent,
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Telemetry: api,
			Output:    output,
		})
		if err != nil {
			return err
		}

		app = &env{
			Config:    config,
			Client:    client,
			Telemetry: tel,
			Tel:       api,
		}
		return nil
	},
}

func shutdown() {
	if app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := app.Telemetry.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
	app = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "The configuration file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "A directory to write every http exchange to.")
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
