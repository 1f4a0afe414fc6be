// Package main provides the moodsync client. It records check-ins into a
// local queue and history, and syncs the queue to the moodsync server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"moodsync/internal/capture"
	"moodsync/internal/client/api"
	"moodsync/internal/client/queue"
	"moodsync/internal/client/store"
	"moodsync/internal/client/syncer"
	"moodsync/internal/config"
	"moodsync/internal/models"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every subcommand
type options struct {
	configPath  string
	serverURL   string
	storeDriver string
	storePath   string
	logLevel    string
}

// session is everything a subcommand needs, built from options and config
type session struct {
	engine *syncer.Engine
	client *api.Client
	store  store.Store
}

func (s *session) Close() error {
	return s.store.Close()
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "moodsync",
		Short: "Personal mood check-ins",
		Long: `moodsync records how you feel and keeps the record safe.

Check-ins are written to a local queue and history first, then sent to the
moodsync server. Anything the server does not confirm stays queued and is
sent again on the next check-in or "moodsync sync".`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "moodsync.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", "", "Server base URL")
	cmd.PersistentFlags().StringVar(&opts.storeDriver, "store", "", "Local store driver (file, sqlite)")
	cmd.PersistentFlags().StringVar(&opts.storePath, "store-path", "", "Local store directory or database file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		checkInCmd(opts),
		syncCmd(opts),
		pendingCmd(opts),
		historyCmd(opts),
		healthCmd(opts),
	)

	return cmd
}

func openSession(opts *options, stderr io.Writer) (*session, error) {
	cfg, err := config.LoadClient(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.serverURL != "" {
		cfg.Client.ServerURL = opts.serverURL
	}
	if opts.storeDriver != "" {
		cfg.Client.StoreDriver = opts.storeDriver
	}
	if opts.storePath != "" {
		cfg.Client.StorePath = opts.storePath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	s, err := store.Open(cfg.Client.StoreDriver, cfg.Client.StorePath)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).
		Level(parseLevel(cfg.Log.Level)).
		With().Timestamp().Logger()

	client := api.NewClient(cfg.Client.ServerURL, &http.Client{})
	engine := syncer.NewEngine(queue.New(s), client, cfg.Client.RequestTimeout, logger)

	return &session{engine: engine, client: client, store: s}, nil
}

func checkInCmd(opts *options) *cobra.Command {
	var (
		emotion   string
		emoji     string
		intensity int
		note      string
		photoPath string
	)

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record a check-in and sync it",
		Example: `  moodsync checkin --emotion Happy --emoji 😊 --intensity 7
  moodsync checkin -e Tired -n "long day" --photo ./evening.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var draft capture.Draft
			draft.SetEmotion(emotion, emoji)
			draft.SetIntensity(intensity)
			draft.SetNote(note)
			if photoPath != "" {
				photo, err := capture.LoadPhoto(photoPath)
				if err != nil {
					return err
				}
				draft.SetPhoto(photo)
			}

			s, err := openSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			entry := draft.CheckIn(time.Now())
			res, err := s.engine.SaveCheckIn(cmd.Context(), entry)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %s %s (%d/10)\n", entry.Emoji, entry.Emotion, entry.Intensity)
			printDrain(out, res.Drain)
			return nil
		},
	}

	cmd.Flags().StringVarP(&emotion, "emotion", "e", "", "Emotion label")
	cmd.Flags().StringVar(&emoji, "emoji", "", "Emoji for the emotion")
	cmd.Flags().IntVarP(&intensity, "intensity", "i", models.DefaultIntensity, "Intensity from 1 to 10")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Optional note")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Optional photo file to attach")

	return cmd
}

func syncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued check-ins to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			printDrain(cmd.OutOrStdout(), s.engine.Drain(cmd.Context()))
			return nil
		},
	}
}

func pendingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List check-ins waiting for the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			pending, err := s.engine.Pending(cmd.Context())
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), pending)
			return nil
		},
	}
}

func historyCmd(opts *options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past check-ins, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			var entries []models.CheckIn
			if remote {
				entries, err = s.client.List(cmd.Context())
			} else {
				entries, err = s.engine.History(cmd.Context())
				slices.Reverse(entries)
			}
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Read the server's records instead of the local mirror")
	return cmd
}

func healthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Server is healthy")
			return nil
		},
	}
}

func printDrain(w io.Writer, res queue.DrainResult) {
	switch {
	case res.Sent == 0 && res.Retained == 0:
		fmt.Fprintln(w, "Nothing to sync")
	case res.Retained == 0:
		fmt.Fprintf(w, "Synced %d check-in(s)\n", res.Sent)
	default:
		fmt.Fprintf(w, "Synced %d check-in(s), %d still queued\n", res.Sent, res.Retained)
	}
}

func printEntries(w io.Writer, entries []models.CheckIn) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No check-ins")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s %-12s %2d/10", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Emoji, e.Emotion, e.Intensity)
		if e.Note != nil {
			line += "  " + *e.Note
		}
		if e.HasPhoto() {
			line += "  [photo]"
		}
		fmt.Fprintln(w, line)
	}
}

func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.WarnLevel
	}
	return l
}
