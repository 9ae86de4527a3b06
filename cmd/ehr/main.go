package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GyroTools/ehr-connector-go/ehr"
	"github.com/GyroTools/ehr-connector-go/internals/config"
	"github.com/GyroTools/ehr-connector-go/internals/logging"
)

type app struct {
	out    io.Writer
	errOut io.Writer

	apiURL   string
	logLevel string
	jsonOut  bool

	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	ehr      *ehr.EHR
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr, logger: zerolog.Nop()}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		a.reportError(err)
		stop()
		os.Exit(1)
	}
}

// run executes one command line and writes the metrics file afterwards, also
// when the command failed.
func (a *app) run(ctx context.Context, args []string) error {
	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if mErr := a.writeMetrics(); mErr != nil && err == nil {
		err = mErr
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ehr",
		Short:         "Command line client for the patient EHR api",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Backend base URL, e.g. https://ehr.example.org/api (overrides EHR_API_URL)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides EHR_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")

	rootCmd.AddCommand(a.patientsCmd())
	rootCmd.AddCommand(a.recordsCmd())
	rootCmd.AddCommand(a.medicationsCmd())
	rootCmd.AddCommand(a.vitalsCmd())
	rootCmd.AddCommand(a.appointmentsCmd())
	rootCmd.AddCommand(a.seedCmd())
	rootCmd.AddCommand(a.importCmd())
	rootCmd.AddCommand(a.pingCmd())
	rootCmd.AddCommand(a.mockServerCmd())
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Env, cfg.LogLevel, a.errOut)
	a.registry = prometheus.NewRegistry()
	return nil
}

// connector builds the EHR client on first use. Commands that never reach
// the backend do not need a resolvable url.
func (a *app) connector() (*ehr.EHR, error) {
	if a.ehr != nil {
		return a.ehr, nil
	}
	baseURL, err := a.cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	a.ehr = ehr.NewEHR(baseURL, a.cfg.VerifyCert,
		ehr.WithLogger(a.logger),
		ehr.WithMetrics(ehr.NewMetrics(a.registry)),
	)
	a.logger.Debug().Str("url", baseURL).Msg("using backend")
	return a.ehr, nil
}

func (a *app) writeMetrics() error {
	if a.cfg == nil || a.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// reportError is the single place errors reach the user. Api errors print
// their field details below the message.
func (a *app) reportError(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.errOut, "interrupted")
		return
	}
	a.logger.Error().Err(err).Int("status", ehr.StatusCode(err)).Msg("command failed")

	fmt.Fprintf(a.errOut, "Error: %s\n", err.Error())
	if apiErr, ok := ehr.AsApiError(err); ok {
		for _, line := range detailLines(apiErr.Details) {
			fmt.Fprintf(a.errOut, "  %s\n", line)
		}
	}
}
