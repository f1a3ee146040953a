package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"presenze/internal/core"
	"presenze/internal/report"
	"presenze/internal/services"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "presenzectl",
		Short:         "Record and inspect attendance from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.AddCommand(
		newInCmd(a),
		newOutCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newRepairCmd(a),
		newLsCmd(a),
		newMonthCmd(a),
		newRangesCmd(a),
		newRowsCmd(a),
		newExportCmd(a),
		newUserCmd(a),
	)
	return root
}

func newInCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "in",
		Short: "Clock in now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.ledger.ClockIn(cmd.Context(), a.ledger.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked in at %s (%s)\n", core.FormatStamp(rec.Attend), rec.ID)
			return nil
		},
	}
}

func newOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "out [id]",
		Short: "Clock out now; defaults to the latest open record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				for _, r := range a.ledger.ListNewestFirst() {
					if !r.HasLeave() {
						id = r.ID
						break
					}
				}
				if id == "" {
					return errors.New("no open record to clock out")
				}
			}
			rec, err := a.ledger.ClockOut(cmd.Context(), id, a.ledger.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clocked out at %s, worked %s\n", core.FormatStamp(rec.Leave), core.FormatHours(rec.Hours()))
			if rec.NeedsRepair() {
				fmt.Fprintln(out, "Leave is not after attend; run `presenzectl repair`")
			}
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add <date> <attend> <leave>",
		Short:   "Add a past day, e.g. add 2024-01-10 22:00 02:00",
		Args:    cobra.ExactArgs(3),
		Example: "  presenzectl add 2024-01-10 09:00 17:30",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.ledger.Backfill(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s - %s (%s)\n", rec.Day,
				core.FormatStamp(rec.Attend), core.FormatStamp(rec.Leave), rec.ID)
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var attend, leave string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the attend and/or leave time of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if attend == "" && leave == "" {
				return errors.New("nothing to change: pass --attend and/or --leave")
			}
			rec, err := a.ledger.EditTimes(cmd.Context(), args[0], attend, leave)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s - %s\n", rec.ID, core.FormatStamp(rec.Attend), core.FormatStamp(rec.Leave))
			return nil
		},
	}
	cmd.Flags().StringVar(&attend, "attend", "", "new attend time (HH:MM)")
	cmd.Flags().StringVar(&leave, "leave", "", "new leave time (HH:MM)")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete record %s?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			rec, err := a.ledger.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", rec.ID, rec.Day)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Move leave times that are not after attend to the next day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.ledger.Repair(cmd.Context())
			if err != nil {
				return err
			}
			if res.NothingToFix() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to fix")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fixed %d record(s): %s\n", res.Changed, strings.Join(res.IDs, ", "))
			return nil
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records := a.ledger.ListNewestFirst()
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			rules := a.ledger.Rules()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tATTEND\tLEAVE\tHOURS\tOVERTIME")
			for _, r := range records {
				leave := "-"
				if r.HasLeave() {
					leave = core.FormatClock12(r.Leave)
				}
				h := r.Hours()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, core.FormatDateGB(r.Attend),
					core.FormatClock12(r.Attend), leave, core.FormatHours(h), core.FormatHours(rules.OvertimeHours(h)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n records")
	return cmd
}

func newMonthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show the calendar and totals of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := a.ledger.Now()
			if len(args) == 1 {
				t, err := time.ParseInLocation("2006-01", args[0], a.ledger.Location())
				if err != nil {
					return fmt.Errorf("%w: month must be YYYY-MM", core.ErrInvalidInput)
				}
				at = t
			}
			records := a.ledger.Records()
			rules := a.ledger.Rules()
			cells := report.BuildMonth(at.Year(), at.Month(), records, a.ledger.Location())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n", at.Month(), at.Year())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, c := range cells {
				detail := ""
				if c.Record != nil {
					detail = core.FormatHours(c.Record.Hours())
				}
				fmt.Fprintf(tw, "%2d\t%s\t%s\t%s\n", c.Day, c.Weekday.String()[:3], c.State, detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			sum := report.Totals(report.InMonth(records, at.Year(), at.Month()), rules)
			fmt.Fprintf(out, "Days: %d  Hours: %s  Overtime: %s\n", sum.Days,
				core.FormatHours(sum.HoursSum), core.FormatHours(sum.OvertimeSum))
			return nil
		},
	}
}

func newRangesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "List the half months that hold records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, o := range report.BiweeklyOptions(a.ledger.Records()) {
				fmt.Fprintf(tw, "%s\t%s\n", o.Key, o.Label)
			}
			return tw.Flush()
		},
	}
}

type selectionFlags struct {
	key, start, end, header string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.key, "key", "", "half month key, e.g. 2024-2-1-15")
	cmd.Flags().StringVar(&f.start, "start", "", "range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "range end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.header, "header", "", "header line; defaults to the display name")
	cmd.MarkFlagsMutuallyExclusive("key", "start")
	cmd.MarkFlagsMutuallyExclusive("key", "end")
}

func (f *selectionFlags) request() services.ExportRequest {
	return services.ExportRequest{Key: f.key, Start: f.start, End: f.end, Header: f.header}
}

func newRowsCmd(a *app) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print the export rows of a half month or date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.openExports(cmd.Context()); err != nil {
				return err
			}
			sheet, err := a.exports.Preview(cmd.Context(), sel.request())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sheet.Title)
			if sheet.Header != "" {
				fmt.Fprintln(out, sheet.Header)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(report.RowHeader, "\t"))
			for _, r := range sheet.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date, r.Attend, r.Leave)
			}
			return tw.Flush()
		},
	}
	sel.register(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Send a half month or date range to the export sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.openExports(cmd.Context()); err != nil {
				return err
			}
			res, err := a.exports.Export(cmd.Context(), sel.request())
			if err != nil {
				return err
			}
			if res.Queued {
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%d rows)\n", res.Title, res.Rows)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows) to %s\n", res.Title, res.Rows, res.Ref)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func newUserCmd(a *app) *cobra.Command {
	var clearName bool
	cmd := &cobra.Command{
		Use:   "user [name]",
		Short: "Show or set the display name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 && !clearName {
				if u := a.ledger.User(); u != "" {
					fmt.Fprintln(out, u)
				} else {
					fmt.Fprintln(out, "(no display name)")
				}
				return nil
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			saved, err := a.ledger.SetUser(cmd.Context(), name)
			if err != nil {
				return err
			}
			if saved == "" {
				fmt.Fprintln(out, "Display name cleared")
				return nil
			}
			fmt.Fprintf(out, "Display name set to %s\n", saved)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearName, "clear", false, "remove the display name")
	return cmd
}
