package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/namespace"
	"github.com/viant/vecstore/vecadmin"
)

func newNamespacesCmd(open appFactory) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List the namespaces created so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := vecadmin.New(a.db, a.dialect)
			if err != nil {
				return err
			}
			list, err := admin.Namespaces(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No namespaces found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTENANT\tDIMENSION\tCREATED")
			for _, ns := range list {
				dim := "-"
				if ns.Dimension > 0 {
					dim = fmt.Sprint(ns.Dimension)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ns.Name, ns.Tenant, dim, ns.CreatedAt)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newStatsCmd(open appFactory) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record count and dimensions of a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := vecadmin.New(a.db, a.dialect)
			if err != nil {
				return err
			}
			stats, err := admin.Stats(cmd.Context(), namespace.TenantID(tenant))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "namespace:  %s\n", stats.Namespace)
			fmt.Fprintf(out, "records:    %d\n", stats.Records)
			fmt.Fprintf(out, "dimension:  %d\n", stats.Dimension)
			fmt.Fprintf(out, "consistent: %t\n", stats.Consistent())
			if !stats.Consistent() {
				fmt.Fprintf(out, "measured:   %d..%d\n", stats.MinDimension, stats.MaxDimension)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant identifier (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
