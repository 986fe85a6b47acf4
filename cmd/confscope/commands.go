package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-confscope"
)

type typeSummary struct {
	Type       string   `json:"type" yaml:"type"`
	IDs        []string `json:"ids" yaml:"ids"`
	Modifiers  []string `json:"modifiers" yaml:"modifiers"`
	HasDefault bool     `json:"has_default" yaml:"has_default"`
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List configuration types and their registered keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			summaries := make([]typeSummary, 0)
			for _, name := range catalog.Types() {
				registry, _ := catalog.Lookup(name)
				_, hasDefault := registry.GetDefault()
				summaries = append(summaries, typeSummary{
					Type:       name,
					IDs:        nonNil(registry.IDs()),
					Modifiers:  nonNil(registry.Modifiers()),
					HasDefault: hasDefault,
				})
			}
			return render(cmd.OutOrStdout(), a.settings.Output, summaries, func(p printer) {
				for _, s := range summaries {
					p("%s\tids=%v\tmodifiers=%v\tdefault=%t\n", s.Type, s.IDs, s.Modifiers, s.HasDefault)
				}
			})
		},
	}
}

type consumerFlags struct {
	id       string
	modifier string
}

func (f *consumerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "consumer ID")
	cmd.Flags().StringVar(&f.modifier, "modifier", "", "consumer modifier")
}

func (f consumerFlags) identity() confscope.Identity {
	return confscope.NewIdentity(f.id, f.modifier)
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		consumer consumerFlags
		path     string
	)
	cmd := &cobra.Command{
		Use:   "resolve TYPE",
		Short: "Print the composed configuration for a consumer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			resolver := a.resolver(catalog)
			out := cmd.OutOrStdout()

			if path != "" {
				_, trace, _ := resolver.ResolveWithTrace(args[0], consumer.identity(), path)
				if len(trace.Layers) == 0 {
					return missError(args[0], consumer)
				}
				return renderTrace(out, a.settings.Output, trace)
			}

			resolution, ok := resolver.Resolve(args[0], consumer.identity())
			if !ok {
				return missError(args[0], consumer)
			}
			return renderTree(out, a.settings.Output, resolution.Tree)
		},
	}
	consumer.bind(cmd)
	cmd.Flags().StringVar(&path, "path", "", "trace a dot-separated path through the levels")
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	var consumer consumerFlags
	cmd := &cobra.Command{
		Use:   "describe TYPE",
		Short: "List the leaf fields of the composed configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			resolution, ok := a.resolver(catalog).Resolve(args[0], consumer.identity())
			if !ok {
				return missError(args[0], consumer)
			}
			fields := confscope.Describe(resolution.Tree)
			return render(cmd.OutOrStdout(), a.settings.Output, fields, func(p printer) {
				for _, field := range fields {
					p("%s\t%s\n", field.Path, field.Type)
				}
			})
		},
	}
	consumer.bind(cmd)
	return cmd
}

func missError(typeName string, consumer consumerFlags) error {
	return fmt.Errorf("no configuration for type %q (id %q, modifier %q)", typeName, consumer.id, consumer.modifier)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
