package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikelcalvo/wms/internal/erp"
	"github.com/mikelcalvo/wms/internal/listcore"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wms v%s\n", erp.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Created by %s in %s\n", erp.Author, erp.Year)
		},
	}
}

func (a *app) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test the connection to the ERP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			if err := a.requireServer(); err != nil {
				return err
			}
			return a.client.CmdPing(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			if err := a.requireServer(); err != nil {
				return err
			}
			return a.client.CmdConfig(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	var q erp.Query
	cmd := &cobra.Command{
		Use:   "list <view>",
		Short: "List records of a view (sales, inventory, purchases, shipments, suppliers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			if err := c.Apply(q); err != nil {
				return err
			}
			c.PrintPage(cmd.OutOrStdout())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Search, "search", "s", "", "case-insensitive search across key columns")
	f.StringVar(&q.Status, "status", "", "only records with this status")
	f.BoolVar(&q.Archived, "archived", false, "show archived records instead of active ones")
	f.StringVar(&q.Sort, "sort", "", "sort column")
	f.BoolVar(&q.Desc, "desc", false, "sort descending")
	f.IntVarP(&q.Page, "page", "p", 1, "page number")
	f.IntVar(&q.PageSize, "page-size", 0, "rows per page")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <view> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			return c.PrintRecord(cmd.OutOrStdout(), args[1])
		},
	}
}

func (a *app) createCommand() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <view> --set key=value ...",
		Short: "Create a record from form values",
		Example: `  wms create sales --set customer="Acme Corp" --set items="CPU-I7:2:450, RAM-16:4"
  wms create suppliers --set supplier_name="Northwind" --set country=Spain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			known := map[string]bool{}
			for _, f := range c.FormFields() {
				known[f.Key] = true
			}
			for k := range values {
				if !known[k] {
					return fmt.Errorf("unknown field %q for %s", k, c.Plural())
				}
			}
			_, err = c.CreateFrom(cmd.Context(), values)
			// The list already printed the outcome.
			return err
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value (repeatable)")
	return cmd
}

func parseSets(sets []string) (map[string]string, error) {
	values := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", s)
		}
		values[strings.TrimSpace(k)] = v
	}
	return values, nil
}

func (a *app) mutateCommand(use, short string, op listcore.BulkOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <view> <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			res, err := c.Mutate(cmd.Context(), op, args[1:])
			if err != nil {
				return err
			}
			if res.FailedCount > 0 {
				out := cmd.OutOrStdout()
				for _, id := range args[1:] {
					if ferr, ok := res.Failed[id]; ok {
						fmt.Fprintf(out, "  %s: %s\n", id, ferr)
					}
				}
				return fmt.Errorf("%d of %d failed", res.FailedCount, res.FailedCount+res.SuccessCount)
			}
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var (
		output string
		q      erp.Query
	)
	cmd := &cobra.Command{
		Use:   "export <view>",
		Short: "Export the filtered rows of a view as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			if err := c.Apply(q); err != nil {
				return err
			}
			if output == "-" {
				_, err := c.Export(cmd.OutOrStdout())
				return err
			}
			if output == "" {
				output = fmt.Sprintf("%s-%s.csv", c.Key(), time.Now().Format("20060102-150405"))
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := c.Export(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s✓ Exported %d %s to %s%s\n", erp.Green, n, c.Plural(), output, erp.Reset)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	f.StringVarP(&q.Search, "search", "s", "", "case-insensitive search across key columns")
	f.StringVar(&q.Status, "status", "", "only records with this status")
	f.BoolVar(&q.Archived, "archived", false, "show archived records instead of active ones")
	f.StringVar(&q.Sort, "sort", "", "sort column")
	f.BoolVar(&q.Desc, "desc", false, "sort descending")
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "import <view> -f file.csv",
		Short: "Create records from a CSV file with form-field headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			ws := a.workspace(cmd.Context())
			defer ws.Close()
			c, err := a.collection(cmd.Context(), ws, args[0])
			if err != nil {
				return err
			}
			rep, err := c.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for row, perr := range rep.ParseErrors {
				fmt.Fprintf(out, "  row %d: %s\n", row, perr)
			}
			if n := rep.Failed(); n > 0 {
				return fmt.Errorf("%d of %d rows not imported", n, rep.Rows)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "report",
		Aliases: []string{"dashboard"},
		Short:   "Print the dashboard summary",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			ws := a.workspace(cmd.Context())
			defer ws.Close()
			data := ws.Report(cmd.Context())
			erp.RenderDashboard(cmd.OutOrStdout(), a.cfg.Brand, data)
			if len(data.Errors) > 0 {
				return errors.New("some views could not be loaded")
			}
			return nil
		},
	}
}
