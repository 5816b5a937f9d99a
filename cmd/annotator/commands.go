package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"dictionary-annotator/internal/config"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/logger"
	"dictionary-annotator/internal/metrics"
	"dictionary-annotator/internal/server"
	"dictionary-annotator/internal/session"
	"dictionary-annotator/internal/vocab"
)

type app struct {
	cfg *config.Config
	log *logger.Logger
}

func setup(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return &app{cfg: cfg, log: log}, nil
}

// remote returns the remote vocabulary provider, or nil when none is configured.
func (a *app) remote() vocab.Provider {
	v := a.cfg.Vocabulary
	if v.ListURL == "" {
		return nil
	}

	return vocab.NewRemoteProvider(v.ListURL, v.RawBaseURL, v.Timeout)
}

func (a *app) manager() *session.Manager {
	return session.NewManager(session.Options{
		Remote:        a.remote(),
		Debounce:      a.cfg.Debounce(),
		TTL:           a.cfg.Server.SessionTTL,
		DefaultConfig: a.cfg.Vocabulary.DefaultConfig,
		Log:           a.log,
	})
}

func runConfigs(args []string) error {
	fs := flag.NewFlagSet("configs", flag.ExitOnError)
	configPath := fs.String("config", "", "application config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	names, err := a.manager().ListConfigs(context.Background())
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Println(name)
	}

	return nil
}

func runAnnotate(args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	configPath := fs.String("config", "", "application config file")
	tablePath := fs.String("table", "", "participant table (.tsv, .csv or .xlsx)")
	dictPath := fs.String("dictionary", "", "existing data dictionary (.json)")
	vocabName := fs.String("vocabulary", "", "vocabulary configuration name")
	outPath := fs.String("out", "", "output file (stdout when empty)")
	formatName := fs.String("format", "json", "output format: json, xlsx or pdf")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tablePath == "" {
		return errors.New("-table is required")
	}

	format, err := session.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	tableData, err := os.ReadFile(*tablePath)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}

	var dictData []byte

	if *dictPath != "" {
		dictData, err = os.ReadFile(*dictPath)
		if err != nil {
			return fmt.Errorf("failed to read dictionary: %w", err)
		}
	}

	sess, err := a.manager().Create(context.Background(), *vocabName)
	if err != nil {
		return err
	}
	defer sess.Close()

	diags, err := sess.LoadTable(*tablePath, tableData, dictData)
	if err != nil {
		return err
	}

	printDiagnostics(os.Stderr, diags)

	data, err := sess.Export(format)
	if err != nil {
		return err
	}

	if *outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	return os.WriteFile(*outPath, data, 0o644)
}

func printDiagnostics(w io.Writer, diags *diagnostic.Diagnostics) {
	for _, group := range [][]diagnostic.Diagnostic{diags.Warnings, diags.Infos} {
		for _, d := range group {
			fmt.Fprintf(w, "%s: %s\n", d.Severity, d)
		}
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "application config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	metrics.Init(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.manager(), server.Options{
		Addr:           a.cfg.Server.Addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	}, a.log)

	return srv.Run(ctx)
}
