package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fnaterm/internal/config"
	"fnaterm/internal/events"
	"fnaterm/internal/export"
	"fnaterm/internal/fna"
	"fnaterm/internal/monitoring"
	"fnaterm/internal/render"
	"fnaterm/internal/server"
	"fnaterm/internal/storage"
	"fnaterm/internal/ui"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fna-term",
		Short:        "Financial needs analysis intake",
		SilenceUsage: true,
		RunE:         runTUI,
	}
	root.AddCommand(
		newServeCmd(),
		newClientsCmd(),
		newExportCmd(),
		newConfigCmd(),
		newTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// bootstrap loads env, prefs and the store shared by every command.
func bootstrap(ctx context.Context) (config.Env, *config.Prefs, storage.Store, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return config.Env{}, nil, nil, err
	}
	prefs, err := config.LoadPrefs()
	if err != nil {
		return config.Env{}, nil, nil, fmt.Errorf("load prefs: %w", err)
	}
	store, err := storage.Open(ctx, env.BackendURL)
	if err != nil {
		return config.Env{}, nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return env, prefs, store, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	env, prefs, store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	// The alt screen owns the terminal, so logs go to a file or nowhere.
	if env.LogFile != "" {
		f, err := tea.LogToFile(env.LogFile, "fna")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	var opts []fna.Option
	if env.KafkaBroker != "" {
		pub, err := events.NewPublisher(env.KafkaBroker, env.KafkaTopic)
		if err != nil {
			log.Printf("event publishing disabled: %v", err)
		} else {
			defer pub.Close()
			opts = append(opts, fna.WithNotifier(pub))
		}
	}

	ctrl := fna.NewController(store, opts...)
	program := ui.NewProgram(fna.NewSelector(store), ctrl, prefs, env.Timeout)
	if err := program.Start(); err != nil {
		return fmt.Errorf("program terminated: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and PDF endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, prefs, store, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			flush, err := monitoring.InitSentry(env.SentryDSN, env.AppEnv, version)
			if err != nil {
				log.Printf("sentry disabled: %v", err)
			} else {
				defer flush()
			}

			loc := prefs.Location()
			srv := server.New(server.Config{
				Addr:       env.Addr,
				AuthURL:    env.AuthURL,
				AnonKey:    env.AnonKey,
				Location:   loc,
				Production: env.Production(),
			}, store, render.New(store, render.WithLocation(loc)), monitoring.NewMetrics(), nil)
			return srv.Run(ctx)
		},
	}
}

func newClientsCmd() *cobra.Command {
	clients := &cobra.Command{
		Use:   "clients",
		Short: "Manage client registrations",
	}
	clients.AddCommand(&cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import client registrations into the local database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, prefs, store, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			local, ok := store.(*storage.SQLite)
			if !ok {
				return errors.New("clients import requires a sqlite backend")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			res, err := local.ImportClientsCSV(ctx, f, prefs.Location())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d clients, skipped %d\n", res.Created, res.Skipped)
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  "+msg)
			}
			return nil
		},
	})
	return clients
}

func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export data",
	}
	var output string
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Write FNA sessions to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, prefs, store, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.ListSessions(ctx)
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteSessions(f, list, prefs.Location()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sessions to %s\n", len(list), output)
			return nil
		},
	}
	sessions.Flags().StringVarP(&output, "output", "o", "fna-sessions.xlsx", "destination file")
	exportCmd.AddCommand(sessions)
	return exportCmd
}

func newConfigCmd() *cobra.Command {
	var name, tz string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update agent preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := config.LoadPrefs()
			if err != nil {
				return fmt.Errorf("load prefs: %w", err)
			}
			changed := false
			if name != "" {
				prefs.Data.Name = name
				changed = true
			}
			if tz != "" {
				if err := prefs.SetTimezone(tz); err != nil {
					return err
				}
				changed = true
			}
			if changed {
				if err := prefs.Save(); err != nil {
					return fmt.Errorf("save prefs: %w", err)
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:     %s\n", prefs.Data.Name)
			fmt.Fprintf(out, "Timezone: %s\n", prefs.Data.Timezone)
			fmt.Fprintf(out, "File:     %s\n", prefs.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "agent display name")
	cmd.Flags().StringVar(&tz, "timezone", "", "IANA timezone, e.g. America/Chicago")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a dashboard session token for this agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			prefs, err := config.LoadPrefs()
			if err != nil {
				return fmt.Errorf("load prefs: %w", err)
			}
			token, err := server.IssueToken(env.AnonKey, prefs.Data.Name, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
