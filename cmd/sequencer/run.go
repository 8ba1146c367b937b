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
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
	"github.com/danielpatrickdp/corps-sequencer/internal/logging"
	"github.com/danielpatrickdp/corps-sequencer/internal/market"
	"github.com/danielpatrickdp/corps-sequencer/internal/metrics"
	"github.com/danielpatrickdp/corps-sequencer/internal/narrator"
	"github.com/danielpatrickdp/corps-sequencer/internal/sequencer"
	"github.com/danielpatrickdp/corps-sequencer/internal/store"
)

const maxLineBytes = 1 << 20

// #region command
func newRunCmd(opts *rootOptions) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read snapshot lines and print the narrated event log",
		Long: "run reads one JSON snapshot per line (each carrying a \"tick\" field),\n" +
			"steps the sequencer once per line and prints every emitted event.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, s, in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "snapshot lines file (- for stdin)")
	return cmd
}

// #endregion command

// #region run
func run(ctx context.Context, s config.Settings, in io.Reader, out, errOut io.Writer) error {
	log, err := logging.NewLogger(errOut, s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if s.MetricsAddr != "" {
		srv := serveMetrics(s.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	seq, err := sequencer.New(s.Sequencer,
		sequencer.WithObserver(logging.NewEventLogger(log, s.Instrument)),
		sequencer.WithObserver(rec),
	)
	if err != nil {
		return err
	}

	var (
		audit     *store.Store
		sessionID string
	)
	if s.DBPath != "" {
		audit, err = store.NewStore(s.DBPath)
		if err != nil {
			return err
		}
		defer audit.Close()
		cfgJSON, err := json.Marshal(s.ToFile())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		sess, err := audit.StartSession(s.Instrument, string(cfgJSON))
		if err != nil {
			return err
		}
		sessionID = sess.SessionID
		log.Info().Str("session", sessionID).Str("db", s.DBPath).Msg("audit session started")
	}

	dec, err := market.NewDecoder()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo, rejected := 0, 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			log.Warn().Msg("interrupted, stopping")
			break
		}
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		t, err := dec.DecodeLine([]byte(raw))
		if err != nil {
			rejected++
			log.Warn().Err(err).Int("line", lineNo).Msg("snapshot rejected")
			continue
		}

		ev := seq.Step(t.Tick, t.Snapshot)
		if ev != nil {
			fmt.Fprintln(out, narrator.Render(*ev))
		}
		if audit != nil {
			err := logging.LogStep(audit.DB(), logging.StepEntry{
				SessionID:    sessionID,
				Tick:         t.Tick,
				SnapshotJSON: raw,
				Event:        ev,
			})
			if err != nil {
				log.Error().Err(err).Int64("tick", t.Tick).Msg("audit write failed")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	log.Info().
		Int("lines", lineNo).
		Int("rejected", rejected).
		Int("events", seq.Log().Len()).
		Str("state", string(seq.State())).
		Msg("input drained")
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}

// #endregion run
