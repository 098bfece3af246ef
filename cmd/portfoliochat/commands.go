package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/portfolio-chat/internal/adapters/filewatcher"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
	"github.com/0xcro3dile/portfolio-chat/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/portfolio-chat/internal/infrastructure/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("providers configured",
		zap.String("primary_model", cfg.HuggingFace.Model),
		zap.Bool("fallback_enabled", cfg.LMStudio.Enabled),
		zap.Bool("fallback_ready", a.resolver.FallbackReady()),
		zap.Bool("force_quota_exceeded", cfg.HuggingFace.ForceQuotaExceeded),
	)

	srv := httpserver.NewServer(a.resolver, a.profiles, a.ledger, a.metrics, a.registry, httpserver.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)

	if a.reload != nil && cfg.Profile.Watch {
		watcher, err := filewatcher.NewFSNotifyWatcher(logger)
		if err != nil {
			return fmt.Errorf("creating profile watcher: %w", err)
		}
		defer watcher.Stop()

		events, err := watcher.Watch(gctx, cfg.Profile.Path)
		if err != nil {
			return fmt.Errorf("watching profile: %w", err)
		}
		g.Go(func() error { return a.reload.Run(gctx, events) })
	}

	g.Go(func() error { return srv.Start(gctx) })

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := usecases.ValidateQuestion(strings.Join(args, " "))
		if err != nil {
			return describe(err)
		}
		answer, err := a.resolver.Resolve(ctx, q)
		if err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, answer.Answer)
		if answer.UsedFallback {
			fmt.Fprintf(out, "\n(answered by fallback model %s)\n", answer.FallbackModel)
		}
		return nil
	},
}

// describe renders a resolution failure as "status: message".
func describe(err error) error {
	var resolved *entities.ResolvedError
	if errors.As(err, &resolved) {
		return fmt.Errorf("%d: %s", resolved.Status, resolved.Message)
	}
	return err
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the knowledge context sent to the providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		knowledge, err := usecases.AssembleContext(a.profiles.Profile())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), knowledge)
		return nil
	},
}

var recentLimit int

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Summarize recorded resolution outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Outcomes.DBPath == "" {
			return errNoLedger
		}
		ledger, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()

		summary, err := ledger.Summary(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printSummary(out, summary)

		if recentLimit <= 0 {
			return nil
		}
		recent, err := ledger.Recent(cmd.Context(), recentLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		printRecent(out, recent)
		return nil
	},
}

func init() {
	outcomesCmd.Flags().IntVar(&recentLimit, "recent", 0, "also list the N most recent outcomes")
}

func printSummary(out io.Writer, s entities.OutcomeSummary) {
	fmt.Fprintf(out, "total: %d\n", s.Total)
	fmt.Fprintf(out, "answered by fallback: %d\n", s.FallbackUsed)

	statuses := make([]int, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fmt.Fprintf(out, "  %d: %d\n", status, s.ByStatus[status])
	}
}

func printRecent(out io.Writer, recent []entities.Outcome) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tERROR\tPRIMARY\tFALLBACK\tLATENCY")
	for _, o := range recent {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			o.RequestedAt.Local().Format(time.RFC3339),
			o.Status,
			dash(string(o.ErrorKind)),
			dash(string(o.PrimaryFailure)),
			dash(string(o.FallbackOutcome)),
			o.Latency.Round(time.Millisecond),
		)
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
