package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/atdtech/dcdash"
	"github.com/atdtech/dcdash/internal/cli"
	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/reports"
	"github.com/atdtech/dcdash/pkg/session"
)

var reportYAML bool

var reportCmd = &cobra.Command{
	Use:   "report [name] [filter=value ...]",
	Short: "Run one report",
	Long: `Run one report and print its envelope: the rows, the row count and the
filters that were applied, defaults included.

Without a name, list the reports and the filters each accepts.`,
	Example: `  # List reports
  dcdash report

  # Open order lines for DC 84 over the last 30 days
  dcdash report order-lines dc=84 days_back=30

  # Hold history as YAML
  dcdash report hold-history header_id=123456 --yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listReports(cmd.OutOrStdout())
		}

		entry, ok := reports.Lookup(args[0])
		if !ok {
			return cli.GeneralError(fmt.Sprintf("unknown report %q (available: %s)", args[0], strings.Join(reports.Names(), ", ")), nil)
		}
		fs, err := parseFilterArgs(entry.Template, args[1:])
		if err != nil {
			return cli.GeneralError("parsing filters", err)
		}

		sc, err := cfg.SessionConfig()
		if err != nil {
			return cli.ConfigError("resolving database settings", err)
		}
		mgr, err := session.Open(sc, session.WithLogger(logger))
		if err != nil {
			return cli.DBConnectError("opening session manager", err)
		}
		defer func() { _ = mgr.Close() }()

		res, err := reports.NewService(mgr, reports.WithLogger(logger)).Run(cmd.Context(), entry.Name, fs)
		if err != nil {
			if dcdash.IsBackendUnavailableErr(err) {
				return cli.DBConnectError("running "+entry.Name, err)
			}
			return cli.GeneralError("running "+entry.Name, err)
		}
		return printResult(cmd.OutOrStdout(), res, reportYAML)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportYAML, "yaml", false, "print YAML instead of JSON")
}

// parseFilterArgs reads name=value arguments.
func parseFilterArgs(t query.Template, args []string) (query.FilterSet, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("filter %q: expected name=value", arg)
		}
		values[name] = value
	}
	return query.Parse(t, values)
}

func printResult(w io.Writer, res reports.Result, asYAML bool) error {
	var (
		body []byte
		err  error
	)
	if asYAML {
		body, err = yaml.Marshal(res)
	} else {
		body, err = json.MarshalIndent(res, "", "  ")
		body = append(body, '\n')
	}
	if err != nil {
		return cli.GeneralError("encoding result", err)
	}
	_, err = w.Write(body)
	return err
}

func listReports(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tFILTERS")
	for _, e := range reports.Catalog() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, describeFilters(e.Template.Filters))
	}
	return tw.Flush()
}

func describeFilters(filters []query.Filter) string {
	if len(filters) == 0 {
		return "-"
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		s := f.Name + ":" + f.Kind.String()
		switch {
		case f.Required:
			s += " (required)"
		case f.Default != nil:
			s += fmt.Sprintf(" (default %v)", f.Default)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
