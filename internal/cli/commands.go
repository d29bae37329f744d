package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/cacheaspect"
	"github.com/unkn0wn-root/cacheaspect/keyexpr"
)

func (a *App) newKeyCmd() *cobra.Command {
	var (
		prefix string
		exprs  []string
		args   []string
	)
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Resolve a multi-segment key from expressions and arguments",
		Example: `  cachectl key --prefix user: --expr '#id' --arg id=42
  cachectl key --expr '#a' --expr '#b' --arg a=x --arg b=y`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			names, values, err := parseArgs(args)
			if err != nil {
				return err
			}
			b, err := keyexpr.Bind(names, values)
			if err != nil {
				return err
			}
			ev := keyexpr.New()
			key, err := cacheaspect.BuildKey(cfg.CachePrefix, prefix, exprs, func(e string) (string, error) {
				return ev.Evaluate("cachectl", b, e)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, key)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "local prefix")
	cmd.Flags().StringArrayVarP(&exprs, "expr", "e", nil, "key expression, repeatable and ordered")
	cmd.Flags().StringArrayVarP(&args, "arg", "a", nil, "argument name=value, repeatable and ordered")
	return cmd
}

func (a *App) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a scalar entry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
				var v any
				found, err := asp.Cache().GetValue(cmd.Context(), args[0], &v)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%s: not found", args[0])
				}
				out, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, string(out))
				return nil
			})
		},
	}
}

func (a *App) newEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict KEY...",
		Short: "Remove entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
				for _, k := range args {
					if err := asp.Cache().RemoveValue(cmd.Context(), k); err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "evicted %s\n", k)
				}
				return nil
			})
		},
	}
}

func (a *App) newCounterCmd(use, short string, sign int64) *cobra.Command {
	var by int64
	cmd := &cobra.Command{
		Use:   use + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
				var (
					n   int64
					err error
				)
				if sign > 0 {
					n, err = asp.Cache().IncrementValue(cmd.Context(), args[0], by)
				} else {
					n, err = asp.Cache().DecrementValue(cmd.Context(), args[0], by)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, n)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&by, "by", 1, "delta")
	return cmd
}

const bloomTestHelp = `Check membership. Like add, test initialises the filter from --insertions
and --fpp when KEY holds none, so testing a missing filter creates it empty
and reports false for every value.`

func (a *App) newBloomCmd() *cobra.Command {
	var (
		insertions int64
		fpp        float64
	)
	bloom := &cobra.Command{
		Use:   "bloom",
		Short: "Create and query bloom filters",
	}
	bloom.PersistentFlags().Int64Var(&insertions, "insertions", 10_000, "expected insertions (ignored if the filter exists)")
	bloom.PersistentFlags().Float64Var(&fpp, "fpp", 0.01, "false positive rate (ignored if the filter exists)")

	bloom.AddCommand(
		&cobra.Command{
			Use:   "create KEY",
			Short: "Initialise a filter unless one already exists",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
					bf, err := asp.Cache().CreateBloomFilter(cmd.Context(), args[0], insertions, fpp)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "size=%d hashes=%d\n", bf.Size(), bf.HashIterations())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add KEY VALUE...",
			Short: "Add members",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
					bf, err := asp.Cache().CreateBloomFilter(cmd.Context(), args[0], insertions, fpp)
					if err != nil {
						return err
					}
					for _, v := range args[1:] {
						added, err := bf.Add(cmd.Context(), v)
						if err != nil {
							return err
						}
						fmt.Fprintf(a.stdout, "%s %t\n", v, added)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "test KEY VALUE...",
			Short: "Check membership",
			Long:  bloomTestHelp,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withAspect(cmd.Context(), func(asp *cacheaspect.Aspect) error {
					bf, err := asp.Cache().CreateBloomFilter(cmd.Context(), args[0], insertions, fpp)
					if err != nil {
						return err
					}
					for _, v := range args[1:] {
						ok, err := bf.Contains(cmd.Context(), v)
						if err != nil {
							return err
						}
						fmt.Fprintf(a.stdout, "%s %t\n", v, ok)
					}
					return nil
				})
			},
		},
	)
	return bloom
}

// parseArgs splits name=value pairs. No pairs means no names, so
// expressions may only use literals.
func parseArgs(pairs []string) ([]string, []any, error) {
	if len(pairs) == 0 {
		return nil, nil, nil
	}
	names := make([]string, len(pairs))
	values := make([]any, len(pairs))
	for i, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, nil, fmt.Errorf("--arg %q: want name=value", p)
		}
		names[i] = strings.TrimSpace(name)
		values[i] = value
	}
	return names, values, nil
}
