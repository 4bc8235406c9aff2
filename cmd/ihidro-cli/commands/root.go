package commands

import (
	"context"
	"fmt"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/serviceutil"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/config"
	"ihidro-assist/internal/history"
	"ihidro-assist/internal/service"
	"os"
	"path"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath  *string
	accountName *string
	strategy    *string
	verbose     *bool
	dump        *bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", config.DefaultPath, "The configuration file to read accounts from.")
	accountName = flags.StringP("account", "a", "", "The account to use, defaults to the first configured account.")
	strategy = flags.String("strategy", "", "Overrides the configured submission strategy (http or browser).")
	verbose = flags.BoolP("verbose", "v", false, "Log debug information.")
	dump = flags.Bool("dump", false, "Write every http exchange to <dev_state>/resty/<account>.")
}

var rootCmd = &cobra.Command{
	Use:   "ihidro-cli",
	Short: "ihidro-cli checks and submits meter readings on the iHidro portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type session struct {
	account service.Account
	cleanup func()
}

func readConfig() config.Config {
	cfg, err := config.Read(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func openStore(cfg config.Config) (*history.Store, func()) {
	if cfg.History.File == "" && cfg.History.Url == "" {
		return nil, func() {}
	}
	database, err := cfg.History.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open history", err)
	}
	err = history.Migrate(context.Background(), database)
	if err != nil {
		serviceutil.Fatal("failed to migrate history", err)
	}
	store := history.NewStore(database, chrono.NewStandardTime())
	return &store, func() {
		database.Close()
	}
}

// openSession creates the selected account with its own portal client, results are
// recorded to history when it is configured.
func openSession() session {
	cfg := readConfig()
	accountCfg, err := cfg.Account(*accountName)
	if err != nil {
		serviceutil.Fatal("failed to select account", err)
	}
	if *strategy != "" {
		accountCfg.Strategy = *strategy
	}

	var output telemetry.InstrumentOutput
	if *dump {
		fsOutput, err := telemetry.NewFilesystemOutput(path.Join("<dev_state>/resty", accountCfg.Name))
		if err != nil {
			serviceutil.Fatal("failed to create dump directory", err)
		}
		output = fsOutput
	}

	tel := telemetry.SlogAPI{}
	client, err := accountCfg.NewClient(tel, chrono.NewStandardTime(), output)
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	store, closeStore := openStore(cfg)
	var reporter service.Reporter = service.DiscardReporter{}
	if store != nil {
		reporter = *store
	}

	account := service.NewAccount(accountCfg.Name, client, reporter, service.WithCustomTelemetryAPI(tel))
	return session{
		account: account,
		cleanup: func() {
			account.Close()
			closeStore()
		},
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func yesNo(value bool) string {
	if value {
		return "da"
	}
	return "nu"
}
