package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/guildstats/internal/adapters/repository"
	"github.com/okian/guildstats/internal/config"
	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/internal/domain/stats"
	"github.com/okian/guildstats/internal/fixtures"
	"github.com/okian/guildstats/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "guildstats-cli",
		Short:        "Guild statistics tooling",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(reportCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(verifyCmd())
	return root
}

// --------------------------------------------------------------------------
// report command
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	var (
		sortKey string
		dir     string
		top     int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the guild aggregate and member ranking from the configured source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := stats.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			direction, err := stats.ParseDirection(dir)
			if err != nil {
				return err
			}
			if top < 0 {
				return fmt.Errorf("%w: --top %d", stats.ErrNegativeLimit, top)
			}

			ctx := cmd.Context()
			snap, err := loadConfigured(ctx)
			if err != nil {
				return err
			}
			ranked, err := stats.RankMembers(snap.Members, snap.Achievements, key, direction)
			if err != nil {
				return err
			}
			if top > 0 && top < len(ranked) {
				ranked = ranked[:top]
			}
			return writeReport(cmd.OutOrStdout(), snap, ranked, key)
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", string(stats.SortTotal), "Sort key: total, name or a stats field")
	cmd.Flags().StringVar(&dir, "dir", string(stats.Desc), "Sort direction: asc or desc")
	cmd.Flags().IntVar(&top, "top", 0, "Show only the first N members (0 shows all)")
	return cmd
}

// loadConfigured opens the source named by the loaded config and snapshots it.
func loadConfigured(ctx context.Context) (*repository.Snapshot, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	src, err := openConfigured(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	return repository.LoadSnapshot(ctx, src)
}

func openConfigured(ctx context.Context, cfg *config.Config) (repository.Source, error) {
	return repository.Open(ctx, cfg.Source, cfg.SourceLocation(),
		repository.WithLogger(logger.Named("repository")),
		repository.WithTimeout(cfg.FetchTimeout()),
	)
}

func writeReport(w io.Writer, snap *repository.Snapshot, ranked []model.Member, key stats.SortKey) error {
	agg := stats.GuildAggregate(snap.Members, snap.Achievements)
	fmt.Fprintf(w, "Snapshot %s (%s)\n", snap.ID, snap.Source)
	fmt.Fprintf(w, "Members %d  HK %d  Quests %d  Raids %d  Points %d  Achievements earned %d  Avg per member %.1f\n\n",
		agg.Members, agg.HK, agg.Quests, agg.Raids, agg.Points, agg.AchievementsEarned,
		stats.AveragePerMember(snap.Members, snap.Achievements))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tCLASS\tRACE\tGUILD RANK\tHK\tQUESTS\tRAIDS\tPOINTS")
	for i, m := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			i+1, m.CharacterName, m.Class, m.Race, m.GuildRank,
			m.Stats.HK, m.Stats.QuestsCompleted, m.Stats.RaidsAttended,
			stats.MemberTotalPoints(m, snap.Achievements))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "\nsorted by %s, %d of %d members\n", key, len(ranked), len(snap.Members))
	return nil
}

// --------------------------------------------------------------------------
// generate command
// --------------------------------------------------------------------------

func generateCmd() *cobra.Command {
	var (
		cfg         = fixtures.DefaultConfig()
		out         string
		databaseURL string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic, seed-deterministic dataset pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" && databaseURL == "" {
				return fmt.Errorf("%w: set --out or --database-url", fixtures.ErrInvalidConfig)
			}
			ctx := cmd.Context()
			ds, err := fixtures.Generate(ctx, cfg)
			if err != nil {
				return err
			}
			if out != "" {
				if err := fixtures.WriteDir(ctx, out, ds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote dataset %s to %s\n", ds.ID, out)
			}
			if databaseURL != "" {
				store, err := repository.NewPostgresSource(ctx, databaseURL,
					repository.WithLogger(logger.Named("repository")))
				if err != nil {
					return err
				}
				defer store.Close()
				if err := fixtures.Publish(ctx, store, ds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published dataset %s to postgres\n", ds.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Members, "members", cfg.Members, "Number of members")
	cmd.Flags().IntVar(&cfg.Achievements, "achievements", cfg.Achievements, "Number of achievements")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Generator seed")
	cmd.Flags().IntVar(&cfg.UnknownRatePercent, "unknown-rate", cfg.UnknownRatePercent, "Percent of members holding an achievement missing from the catalog")
	cmd.Flags().StringVar(&out, "out", "", "Directory to write members.json and achievements.json into")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Also publish the dataset to this Postgres database")
	return cmd
}

// --------------------------------------------------------------------------
// verify command
// --------------------------------------------------------------------------

func verifyCmd() *cobra.Command {
	var (
		baseURL string
		sortKey string
		dir     string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a running server's leaderboard against a local computation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := stats.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			direction, err := stats.ParseDirection(dir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			src, err := openConfigured(ctx, cfg)
			if err != nil {
				return err
			}
			if c, ok := src.(io.Closer); ok {
				defer c.Close()
			}

			rep, err := fixtures.NewVerifier(baseURL, fixtures.WithOrdering(key, direction)).Verify(ctx, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries match, top %s with %d points (server snapshot %s)\n",
				rep.Entries, rep.Top, rep.TopPoints, rep.RemoteSnapshotID)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:9080", "Base URL of the guildstats server")
	cmd.Flags().StringVar(&sortKey, "sort", string(stats.SortTotal), "Sort key to verify")
	cmd.Flags().StringVar(&dir, "dir", string(stats.Desc), "Sort direction to verify")
	return cmd
}
