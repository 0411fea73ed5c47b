package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fetalcare/fetalcare/internal/config"
	"github.com/fetalcare/fetalcare/internal/domain/assessment"
	"github.com/fetalcare/fetalcare/internal/domain/records"
	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.APIBaseURL = u
	}
	return cfg, nil
}

// cliEnv is what every one-shot command needs: config, a stderr logger and
// the remote client.
type cliEnv struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *fetalapi.Client
}

func newCLIEnv(cmd *cobra.Command) (*cliEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	if cfg.LogLevel == "" || cfg.LogLevel == "info" {
		logger = logger.Level(zerolog.WarnLevel)
	}
	return &cliEnv{
		cfg:    cfg,
		logger: logger,
		client: fetalapi.New(cfg.APIBaseURL, cfg.APITimeout, fetalapi.WithLogger(logger)),
	}, nil
}

// printNotifier writes toasts to the command's stderr.
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(level notification.Level, message string) {
	fmt.Fprintf(p.w, "[%s] %s\n", level, message)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// offlinePredictor stands in for the remote service when --offline is set.
type offlinePredictor struct{}

func (offlinePredictor) Health(context.Context) (*fetalapi.HealthResponse, error) {
	return nil, fetalapi.ErrUnavailable
}

func (offlinePredictor) Predict(context.Context, fetalapi.PredictRequest) (*fetalapi.PredictResponse, error) {
	return nil, fetalapi.ErrUnavailable
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the prediction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCLIEnv(cmd)
			if err != nil {
				return err
			}
			resp, err := env.client.Health(cmd.Context())
			out := struct {
				API        string                   `json:"api"`
				Connection fetalapi.Connection      `json:"connection"`
				Upstream   *fetalapi.HealthResponse `json:"upstream,omitempty"`
			}{env.client.BaseURL(), fetalapi.ConnectionStatus(err == nil), resp}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record totals by health status",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCLIEnv(cmd)
			if err != nil {
				return err
			}
			st, err := records.NewService(env.client, env.logger).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}
}

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List stored exams",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCLIEnv(cmd)
			if err != nil {
				return err
			}
			cpf, _ := cmd.Flags().GetString("cpf")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetString("limit")
			page, _ := cmd.Flags().GetInt("page")

			b := records.NewBrowser(env.client, printNotifier{cmd.ErrOrStderr()}, env.logger,
				records.WithDefaultLimit(env.cfg.DefaultPageSize))
			snap, err := b.ApplyFilters(cmd.Context(), cpf, status, limit)
			if err == nil && page > 0 {
				snap, err = b.ChangePage(cmd.Context(), page)
			}
			if werr := writeJSON(cmd.OutOrStdout(), records.Render(snap)); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().String("cpf", "", "CPF filter (at least 3 digits)")
	cmd.Flags().String("status", "", "Health status filter (Normal, Em Risco, Risco Crítico)")
	cmd.Flags().String("limit", "", "Page size")
	cmd.Flags().Int("page", 0, "Zero-based page index")
	return cmd
}

func addPatientFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "Paciente CLI", "Patient name")
	cmd.Flags().String("id", "cli", "Patient id")
	cmd.Flags().String("cpf", "", "Patient CPF")
	cmd.Flags().String("ga", "32", "Gestational age in weeks")
	cmd.Flags().String("age", "", "Patient age")
	cmd.Flags().Bool("offline", false, "Skip the prediction service and use the local engine")
}

func patientFromFlags(cmd *cobra.Command) assessment.PatientForm {
	name, _ := cmd.Flags().GetString("name")
	id, _ := cmd.Flags().GetString("id")
	cpf, _ := cmd.Flags().GetString("cpf")
	ga, _ := cmd.Flags().GetString("ga")
	age, _ := cmd.Flags().GetString("age")
	return assessment.PatientForm{Name: name, ID: id, CPF: cpf, GestationalAge: ga, Age: age}
}

func newCLIController(cmd *cobra.Command, env *cliEnv, opts ...assessment.Option) *assessment.Controller {
	var predictor assessment.Predictor = env.client
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		predictor = offlinePredictor{}
	}
	return assessment.NewController(predictor, printNotifier{cmd.ErrOrStderr()}, env.logger, opts...)
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Analyze a monitoring reading, falling back to the local engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCLIEnv(cmd)
			if err != nil {
				return err
			}
			params := assessment.Defaults()
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				if params, err = assessment.LoadParameters(path); err != nil {
					return err
				}
			}
			ctl := newCLIController(cmd, env)
			if _, err := ctl.SetPatient(patientFromFlags(cmd)); err != nil {
				return err
			}
			a, err := ctl.Submit(cmd.Context(), assessment.FormFromParameters(params))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), assessment.RenderResult(a, location(env.cfg)))
		},
	}
	cmd.Flags().String("file", "", "YAML file with monitoring parameters")
	addPatientFlags(cmd)
	return cmd
}

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Run a built-in or configured test scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newCLIEnv(cmd)
			if err != nil {
				return err
			}
			catalog := assessment.NewCatalog(nil)
			if env.cfg.ScenariosFile != "" {
				scenarios, err := assessment.LoadScenarios(env.cfg.ScenariosFile)
				if err != nil {
					return err
				}
				catalog.Replace(scenarios)
			}
			ctl := newCLIController(cmd, env, assessment.WithCatalog(catalog))
			a, err := ctl.RunScenario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), assessment.RenderResult(a, location(env.cfg)))
		},
	}
	cmd.Flags().Bool("offline", false, "Skip the prediction service and use the local engine")
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a monitoring reading with the local engine only",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := assessment.Defaults()
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				var err error
				if params, err = assessment.LoadParameters(path); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), scoring.Score(params))
		},
	}
	cmd.Flags().String("file", "", "YAML file with monitoring parameters")
	return cmd
}

func location(cfg *config.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}
