package main

import (
	"context"
	"flag"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/serviceutil"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/config"
	"ihidro-assist/internal/history"
	"ihidro-assist/internal/notify"
	"ihidro-assist/internal/service"
	"log/slog"
	"path"
	"time"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", config.DefaultPath, "The configuration file.")
	once := flag.Bool("once", false, "Refresh every account once and exit.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := config.Read(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	otel := InitTelemetry(ctx, *verbose, cfg.Telemetry)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	tel := telemetry.SlogAPI{}
	clock := chrono.NewStandardTime()

	var reporters service.MultiReporter
	var store *history.Store
	if cfg.History.File != "" || cfg.History.Url != "" {
		database, err := cfg.History.OpenDB()
		if err != nil {
			serviceutil.Fatal("open history", err)
		}
		defer database.Close()
		err = history.Migrate(ctx, database)
		if err != nil {
			serviceutil.Fatal("migrate history", err)
		}
		s := history.NewStore(database, clock)
		store = &s
		reporters = append(reporters, s)
	}
	if cfg.Notify != nil {
		sender := notify.NewSMTPSender(*cfg.Notify)
		reporters = append(reporters, notify.NewWindowNotifier(cfg.Notify.From, cfg.Notify.To, sender, tel))
	}

	var reporter service.Reporter = reporters
	if len(reporters) == 0 {
		reporter = service.DiscardReporter{}
	}

	accounts := make([]service.Account, 0, len(cfg.Accounts))
	for _, accountCfg := range cfg.Accounts {
		var output telemetry.InstrumentOutput
		if *verbose {
			fsOutput, err := telemetry.NewFilesystemOutput(path.Join("<dev_state>/resty", accountCfg.Name))
			if err != nil {
				serviceutil.Fatal("create dump directory", err)
			}
			output = fsOutput
		}

		client, err := accountCfg.NewClient(tel, clock, output)
		if err != nil {
			serviceutil.Fatal("create portal client", err)
		}
		accounts = append(accounts, service.NewAccount(
			accountCfg.Name,
			client,
			reporter,
			service.WithCustomTelemetryAPI(tel),
		))
	}

	r := refresher{
		accounts:  accounts,
		store:     store,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		time:      clock,
		tel:       telemetry.NewScopedAPI("ihidrod", tel),
	}
	defer r.close()

	if *once {
		r.run(ctx)
		return
	}

	cron := chrono.NewStandardCron(tel)
	err = r.schedule(ctx, cron, cfg.RefreshCron)
	if err != nil {
		serviceutil.Fatal("schedule refresh", err)
	}
	slog.Info("refresh scheduled", "cron", cfg.RefreshCron, "accounts", len(accounts))

	r.run(ctx)
	<-ctx.Done()
	<-cron.Stop().Done()
}
