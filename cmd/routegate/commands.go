package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/chat"
	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/executor"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/router"
	"github.com/zen-systems/routegate/pkg/transcript"
)

func askCmd() *cobra.Command {
	var modelFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Route a prompt and execute it with fallbacks",
		Long: `Classifies the prompt, selects the best model and executes it. If the
selected model fails, the next ranked models are tried in order.

Use --model to pin the primary model (id or alias); fallbacks still come
from the ranking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]
			return withApp(func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				a.loadEvaluations(ctx)

				var reply *chat.Reply
				var err error
				if modelFlag != "" {
					reply, err = a.service.ProcessPinned(ctx, aliases.Resolve(modelFlag), prompt, nil)
				} else {
					reply, err = a.service.Process(ctx, prompt, nil)
				}
				if reply == nil {
					return err
				}

				if jsonFlag {
					if encErr := writeJSON(os.Stdout, reply.Assistant); encErr != nil {
						return encErr
					}
					return err
				}

				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Routing to %s (%s, complexity %.2f)\n",
					reply.Result.SelectedModelID, reply.Result.TaskType, reply.Result.Complexity)
				if reply.Outcome.FallbackUsed {
					fmt.Fprintf(os.Stderr, "Served by fallback %s\n", reply.Outcome.ModelID)
				}
				fmt.Println(reply.Assistant.Content)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "pin the primary model (id or alias)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the assistant transcript message as JSON")

	return cmd
}

func routeCmd() *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "route [prompt]",
		Short: "Show the routing decision for a prompt without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				a.loadEvaluations(cmd.Context())
				result := a.service.Route(args[0])
				fallbacks := result.Fallbacks(a.routing.Fallbacks())

				if jsonFlag {
					return writeJSON(os.Stdout, transcript.NewRouting(result, fallbacks))
				}
				return printRouting(os.Stdout, result, fallbacks)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the routing metadata as JSON")
	return cmd
}

func printRouting(out io.Writer, result *router.Result, fallbacks []string) error {
	class := result.Classification()
	fmt.Fprintf(out, "Task type:  %s (%s)\n", class.TaskType, class.Reason)
	fmt.Fprintf(out, "Complexity: %.2f\n", class.Complexity)
	fmt.Fprintf(out, "Policy:     %s\n", result.Policy)
	fmt.Fprintf(out, "Selected:   %s\n", result.SelectedModelID)
	fmt.Fprintf(out, "Fallbacks:  %s\n\n", formatList(fallbacks))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tSCORE\tTRADITIONAL\tEVAL\tTASK\tFIT\tCOST\tSUCCESS\tLATENCY")
	for _, s := range result.Scores {
		eval := "-"
		if s.Factors.EvaluationScore != nil {
			eval = fmt.Sprintf("%.1f", *s.Factors.EvaluationScore)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%s\t%.2f\t%.2f\t%.2f\t%.3f\t%.2f\n",
			s.ModelID, s.Score, s.Factors.Traditional, eval,
			s.Factors.TaskTypeMatch, s.Factors.ComplexityFit, s.Factors.CostEfficiency,
			s.Factors.PerformanceRating, s.Factors.LatencyRating)
	}
	return w.Flush()
}

func chatCmd() *cobra.Command {
	var metricsAddr string
	var transcriptPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session with routing and fallbacks",
		Long: `Reads prompts from stdin, one per line, and answers each with the
routed model. The conversation so far is passed to the model as history.

Use --metrics-addr to expose Prometheus metrics while the session runs and
--transcript to append every message as a JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()

				if metricsAddr != "" {
					srv := serveMetrics(metricsAddr, a.logger)
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
						defer cancel()
						_ = srv.Shutdown(shutdownCtx)
					}()
				}

				var sink io.Writer
				if transcriptPath != "" {
					f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
					if err != nil {
						return fmt.Errorf("open transcript: %w", err)
					}
					defer f.Close()
					sink = f
				}

				// Evaluations load in the background; prompts sent before
				// they land get ErrNotReady when evaluations are required.
				go a.loadEvaluations(ctx)
				if fs, ok := a.source.(*evaluation.FileSource); ok && a.routing.Evaluations.Watch {
					w := evaluation.NewWatcher(a.importer, fs, evaluation.WithWatcherLogger(a.logger.Named("watcher")))
					go func() {
						if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
							a.logger.Warn("evaluation watcher stopped", zap.Error(err))
						}
					}()
				}

				return runChat(ctx, a.service, os.Stdin, os.Stdout, sink)
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "append messages as JSON lines to this file")
	return cmd
}

func runChat(ctx context.Context, svc *chat.Service, in io.Reader, out io.Writer, sink io.Writer) error {
	var history []transcript.Message
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		switch prompt {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "/quit", "/exit":
			return nil
		}

		reply, err := svc.Process(ctx, prompt, history)
		switch {
		case errors.Is(err, chat.ErrNotReady):
			fmt.Fprintln(out, "The system is still warming up. Please try again in a moment.")
		case reply == nil && err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		default:
			history = append(history, reply.User, reply.Assistant)
			if sink != nil {
				_ = writeJSONLine(sink, reply.User)
				_ = writeJSONLine(sink, reply.Assistant)
			}
			var allFailed *executor.AllModelsFailedError
			switch {
			case errors.As(err, &allFailed):
				fmt.Fprintln(out, "Sorry, no model could produce an answer right now.")
			case err != nil:
				fmt.Fprintf(out, "error: %v\n", err)
			default:
				fmt.Fprintf(out, "[%s] %s\n", reply.Assistant.Metadata.ModelName, reply.Assistant.Content)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool
	var validateFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models, adapters, and aliases",
		Long: `Lists every model in the catalog with its tier, cost, latency and
reliability.

Use --resolve to show aliases and what they resolve to.
Use --validate to check all aliases resolve to catalog models.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if resolveFlag {
					return showAliases(os.Stdout)
				}
				if validateFlag {
					return validateAliases(a.registry)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tPROVIDER\tTIER\tCOST/TOKEN\tLATENCY\tRELIABILITY\tSTRENGTHS\tSTATUS")
				for _, m := range a.registry.List() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.0fms\t%s\t%s\t%s\n",
						m.ID, m.Provider, m.Tier, m.CostPerToken, m.AverageLatency,
						models.PerformanceLabel(m.SuccessRate), formatList(m.Strengths),
						providerStatus(a, m))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")
	cmd.Flags().BoolVar(&validateFlag, "validate", false, "check all aliases resolve to catalog models")

	return cmd
}

func providerStatus(a *app, m models.ModelConfig) string {
	if !a.routing.Live() {
		return "simulated"
	}
	if a.cfg.HasAdapter(strings.ToLower(m.Provider)) {
		return "ready"
	}
	return "no key"
}

func showAliases(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tMODEL")
	for _, name := range aliases.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, aliases.Resolve(name))
	}
	return w.Flush()
}

func validateAliases(registry *models.Registry) error {
	errs := aliases.Validate(registry)
	if len(errs) == 0 {
		fmt.Println("All aliases resolve to catalog models.")
		return nil
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}
	return fmt.Errorf("%d invalid aliases", len(errs))
}

func evalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evals",
		Short: "Inspect and import model evaluations",
	}
	cmd.AddCommand(evalsListCmd())
	cmd.AddCommand(evalsBestCmd())
	cmd.AddCommand(evalsImportCmd())
	return cmd
}

func evalsListCmd() *cobra.Command {
	var taskFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluations from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if _, err := a.importer.Import(cmd.Context(), a.source); err != nil {
					return err
				}

				var evals []evaluation.Evaluation
				if taskFlag != "" {
					task, err := models.ParseTaskType(taskFlag)
					if err != nil {
						return err
					}
					evals = a.store.GetEvaluations(task)
				} else {
					evals = a.store.All()
				}
				return printEvaluations(os.Stdout, evals)
			})
		},
	}

	cmd.Flags().StringVar(&taskFlag, "task", "", "only show this task type, best first")
	return cmd
}

func evalsBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best [task-type]",
		Short: "Show the best evaluated model for a task type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := models.ParseTaskType(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				if _, err := a.importer.Import(cmd.Context(), a.source); err != nil {
					return err
				}
				best, ok := a.store.GetBestModel(task)
				if !ok {
					return fmt.Errorf("no evaluations for %s", task)
				}
				score, _ := a.store.GetScore(best, task)
				fmt.Printf("%s\t%.1f\n", best, score)
				return nil
			})
		},
	}
}

func evalsImportCmd() *cobra.Command {
	var fileFlag string
	var redisAddr string
	var redisKey string
	var seedFlag bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Publish evaluations to a Redis feed",
		Long: `Reads evaluations from --file (or the built-in reference table with
--seed) and publishes them to the Redis hash used by the redis source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src evaluation.Source
			switch {
			case fileFlag != "":
				src = &evaluation.FileSource{Path: fileFlag}
			case seedFlag:
				src = evaluation.NewStaticSource()
			default:
				return fmt.Errorf("one of --file or --seed is required")
			}
			if redisAddr == "" {
				return fmt.Errorf("--redis-addr is required")
			}

			records, err := src.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			dst := evaluation.NewRedisSource(redisAddr, redisKey)
			defer dst.Close()
			if err := dst.Publish(cmd.Context(), records); err != nil {
				return err
			}
			fmt.Printf("Published %d evaluations to %s\n", len(records), dst.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&fileFlag, "file", "", "YAML evaluations file")
	cmd.Flags().BoolVar(&seedFlag, "seed", false, "publish the built-in reference evaluations")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address (host:port)")
	cmd.Flags().StringVar(&redisKey, "redis-key", evaluation.DefaultRedisKey, "Redis hash key")
	return cmd
}

func printEvaluations(out io.Writer, evals []evaluation.Evaluation) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tTASK\tSCORE\tUPDATED")
	for _, e := range evals {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", e.ModelID, e.TaskType, e.Score, e.LastUpdated.Format(time.RFC3339))
	}
	return w.Flush()
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONLine(out io.Writer, v any) error {
	return json.NewEncoder(out).Encode(v)
}
