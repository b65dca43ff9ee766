package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	historysvc "github.com/mamadbah2/flocktracker/internal/service/history"
)

// errNotConfirmed is returned by clear without --yes.
var errNotConfirmed = errors.New("refusing to delete every snapshot without --yes")

type rangeFlags struct {
	start string
	end   string
	breed string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.breed, "breed", "", "only this breed")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *rangeFlags) query() (historysvc.Query, error) {
	start, err := models.ParseDate(f.start)
	if err != nil {
		return historysvc.Query{}, fmt.Errorf("--start: %w", err)
	}
	end, err := models.ParseDate(f.end)
	if err != nil {
		return historysvc.Query{}, fmt.Errorf("--end: %w", err)
	}
	return historysvc.Query{Breed: f.breed, Start: start, End: end}, nil
}

func exportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write snapshots to CSV files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Export the most recent snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.history.ExportLatest(cmd.Context(), a.outDir, a.snapshots.Today())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var rf rangeFlags
	rangeCmd := &cobra.Command{
		Use:   "range",
		Short: "Export every snapshot between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rf.query()
			if err != nil {
				return err
			}
			path, err := a.history.ExportRange(cmd.Context(), a.outDir, q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	rf.register(rangeCmd)
	cmd.AddCommand(rangeCmd)

	return cmd
}

func historyCmd(a *app) *cobra.Command {
	var (
		rf     rangeFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored records between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rf.query()
			if err != nil {
				return err
			}
			records, err := a.history.History(cmd.Context(), q)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tCATEGORY\tBREED\tSTAGE\tCOUNT\tF\tM\tJM\tJF\tJU")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
					r.Date, r.Category, r.Breed, r.Stage, r.Count,
					r.BreedingFemales, r.BreedingMales,
					r.JuvenileMales, r.JuvenileFemales, r.JuvenileUnknown)
			}
			return tw.Flush()
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func clearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			n, err := a.history.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func reportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the daily summary of the latest snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.reporting.DailySummary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
