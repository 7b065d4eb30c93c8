package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sakif/club-league/internal/config"
	"github.com/sakif/club-league/internal/logging"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/model"
	"github.com/sakif/club-league/internal/server"
	"github.com/sakif/club-league/internal/service"
)

var adminInput service.RegisterInput

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(bracketCmd)
	rootCmd.AddCommand(rankingsCmd)
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminInput.Name, "name", "", "admin display name")
	createAdminCmd.Flags().StringVar(&adminInput.Phone, "phone", "", "login phone number")
	createAdminCmd.Flags().StringVar(&adminInput.PIN, "pin", "", "4-digit login PIN")
	for _, f := range []string{"name", "phone", "pin"} {
		_ = createAdminCmd.MarkFlagRequired(f)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the database applies migrations.
		return withServices(cmd.Context(), func(*server.Services) error {
			fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
			return nil
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Close the current season now",
	Long: `Snapshots every member with points into history, resets the league
table and purges withdrawn members. Running it twice in a month is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *server.Services) error {
			res, err := s.Seasons.RunArchive(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"season %s archived: %d snapshot(s), %d reset, %d purged, %d already archived\n",
				res.Period, res.Snapshots, res.Reset, res.Purged, res.AlreadyArchived)
			return nil
		})
	},
}

var bracketCmd = &cobra.Command{
	Use:   "bracket",
	Short: "Print the quarter-final bracket from archived points",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *server.Services) error {
			b, err := s.Tournament.GenerateBracket(cmd.Context())
			if err != nil {
				return err
			}
			printBracket(cmd.OutOrStdout(), b)
			return nil
		})
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Print the current league table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *server.Services) error {
			table, err := s.League.Rankings(cmd.Context())
			if err != nil {
				return err
			}
			printRankings(cmd.OutOrStdout(), table)
			return nil
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an approved admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(s *server.Services) error {
			m, err := s.Members.CreateAdmin(cmd.Context(), adminInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", m.Name, m.ID)
			return nil
		})
	},
}

// withServices opens the configured database, runs fn and closes it.
func withServices(ctx context.Context, fn func(*server.Services) error) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, logLevel, cfg.Log.Format)
	if err != nil {
		return err
	}

	db, err := server.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Counters are recorded but never scraped in a one-shot process.
	services, err := server.NewServices(cfg, db, metrics.NewService(prometheus.NewRegistry()), logger)
	if err != nil {
		return err
	}
	return fn(services)
}

func printRankings(w io.Writer, table []model.Member) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPTS\tW\tD\tL\tDIFF")
	for i, m := range table {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%+d\n",
			i+1, m.Name, m.RankPoint, m.Wins, m.Draws, m.Losses, m.GameDiff)
	}
	tw.Flush()
}

func printBracket(w io.Writer, b *model.Bracket) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tSEED\tPLAYER\tPTS\tSEED\tPLAYER\tPTS")
	for _, p := range b.Pairings {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\t%d\n",
			p.Round,
			p.Seeds[0], p.Player1.MemberName, p.Player1.Total,
			p.Seeds[1], p.Player2.MemberName, p.Player2.Total)
	}
	tw.Flush()
}
