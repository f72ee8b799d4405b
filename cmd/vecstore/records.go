package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/namespace"
)

const (
	demoTenant = "123"
	demoKey    = "url.xyz.com"
	demoDim    = 100
)

func newDemoCmd(open appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Store and read back a sample vector",
		Long: `Open the namespace of tenant 123, store key url.xyz.com with a vector of
100 ones and print it back. Running the demo twice reports the existing row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			return a.registry.Session(ctx, func(s *namespace.Session) error {
				vs, err := s.Open(ctx, demoTenant)
				if err != nil {
					return err
				}
				vec := make([]float64, demoDim)
				for i := range vec {
					vec[i] = 1.0
				}
				if _, err := vs.Store(ctx, demoKey, vec); err != nil {
					if !errors.Is(err, namespace.ErrDuplicateKey) {
						return err
					}
					a.logger.Info("demo record already stored")
				}
				rec, err := vs.Get(ctx, demoKey)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, rec.ID, rec.Key)
				writeVector(out, rec.Vector)
				return nil
			})
		},
	}
}

func newPutCmd(open appFactory) *cobra.Command {
	var tenant, key, raw string
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a vector under a key",
		Long: `Store a vector under a key in the tenant's namespace. Keys are write-once.

Examples:
  vecstore put --tenant 123 --key doc-1 --vector 0.5,1,-2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vec, err := parseVector(raw)
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			vs, err := a.registry.Open(ctx, namespace.TenantID(tenant))
			if err != nil {
				return err
			}
			ref, err := vs.Store(ctx, key, vec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.ID, ref.Key, ref.Namespace)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant identifier (required)")
	cmd.Flags().StringVar(&key, "key", "", "record key (required)")
	cmd.Flags().StringVar(&raw, "vector", "", "comma separated components (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("vector")
	return cmd
}

func newGetCmd(open appFactory) *cobra.Command {
	var tenant, key string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the vector stored under a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			vs, err := a.registry.Open(ctx, namespace.TenantID(tenant))
			if err != nil {
				return err
			}
			vec, err := vs.Read(ctx, key)
			if err != nil {
				return err
			}
			writeVector(cmd.OutOrStdout(), vec)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant identifier (required)")
	cmd.Flags().StringVar(&key, "key", "", "record key (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// parseVector parses "1,2.5,-3" into components. Whitespace around
// components is ignored.
func parseVector(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: vector is empty", namespace.ErrInvalidVector)
	}
	parts := strings.Split(raw, ",")
	vec := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %w", namespace.ErrInvalidVector, i, err)
		}
		vec[i] = v
	}
	return vec, nil
}

// writeVector prints components in shortest round-trip form.
func writeVector(w io.Writer, vec []float64) {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	fmt.Fprintf(w, "[%s]\n", strings.Join(parts, " "))
}
