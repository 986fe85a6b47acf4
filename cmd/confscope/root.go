package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-confscope"
	"github.com/goliatone/go-confscope/pkg/activity"
	"github.com/goliatone/go-confscope/pkg/source"
)

const envPrefix = "CONFSCOPE"

// settings mirrors the persistent flags, CONFSCOPE_* variables and the
// optional settings file, in increasing order of precedence: file, env, flag.
type settings struct {
	Dir           string   `mapstructure:"dir"`
	Extensions    []string `mapstructure:"extensions"`
	IDField       string   `mapstructure:"id_field"`
	ModifierField string   `mapstructure:"modifier_field"`
	IDExpr        string   `mapstructure:"id_expr"`
	ModifierExpr  string   `mapstructure:"modifier_expr"`
	ExprTypes     []string `mapstructure:"expr_types"`
	Engine        string   `mapstructure:"engine"`
	LogLevel      string   `mapstructure:"log_level"`
	LogFormat     string   `mapstructure:"log_format"`
	Output        string   `mapstructure:"output"`
}

type app struct {
	v        *viper.Viper
	cfgFile  string
	settings settings
	logger   *slog.Logger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	root := &cobra.Command{
		Use:   "confscope",
		Short: "Resolve layered configuration fragments",
		Long: `Load configuration fragments from a directory, register them by type at
the ID, modifier and default levels, and resolve the composed tree for a
consumer.

Examples:
  # List the discovered types
  confscope types --dir ./conf

  # Resolve the service configuration for consumer billing in prod
  confscope resolve service --id billing --modifier prod

  # Show where service.port came from
  confscope resolve service --id billing --path service.port`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "settings file (default: ./.confscope.yaml when present)")
	flags.StringP("dir", "d", ".", "directory holding configuration fragments")
	flags.StringSlice("extensions", nil, "fragment extensions to read (default: all known formats)")
	flags.String("id-field", confscope.DefaultIDField, "field naming the consumer ID")
	flags.String("modifier-field", confscope.DefaultModifierField, "field naming the modifier")
	flags.String("id-expr", "", "expression deriving the ID instead of id-field")
	flags.String("modifier-expr", "", "expression deriving the modifier instead of modifier-field")
	flags.StringSlice("expr-types", nil, "types the expressions apply to (default: all)")
	flags.String("engine", "expr", "expression engine: expr, cel or js")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")

	for _, name := range []string{
		"dir", "extensions", "id-field", "modifier-field", "id-expr", "modifier-expr",
		"expr-types", "engine", "log-level", "log-format", "output",
	} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(newTypesCmd(a), newResolveCmd(a), newDescribeCmd(a))
	return root
}

func (a *app) init(stderr io.Writer) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings %s: %w", a.cfgFile, err)
		}
	} else {
		a.v.SetConfigName(".confscope")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read settings: %w", err)
			}
		}
	}

	if err := a.v.Unmarshal(&a.settings); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	logger, err := newLogger(stderr, a.settings.LogLevel, a.settings.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func (a *app) options() []confscope.Option {
	hook := activity.HookFunc(func(_ context.Context, event activity.Event) error {
		a.logger.Debug("activity",
			slog.String("verb", event.Verb),
			slog.String("object_type", event.ObjectType),
			slog.String("object_id", event.ObjectID))
		return nil
	})
	return []confscope.Option{
		confscope.WithLogger(a.logger),
		confscope.WithActivityHooks(activity.Hooks{hook}),
	}
}

func (a *app) load(ctx context.Context) (*confscope.Catalog, error) {
	classifier, err := a.classifier()
	if err != nil {
		return nil, err
	}
	var dirOpts []source.DirOption
	if len(a.settings.Extensions) > 0 {
		dirOpts = append(dirOpts, source.WithExtensions(a.settings.Extensions...))
	}
	return confscope.Load(ctx, source.NewDir(a.settings.Dir, dirOpts...), classifier, a.options()...)
}

func (a *app) resolver(catalog *confscope.Catalog) *confscope.Resolver {
	return confscope.NewResolver(catalog, a.options()...)
}

// classifier reads ids and modifiers from fields, or from expressions when
// any are configured. Types outside expr-types fall back to fields.
func (a *app) classifier() (confscope.Classifier, error) {
	fields := confscope.NewFieldClassifier(confscope.WithFields(a.settings.IDField, a.settings.ModifierField))
	if a.settings.IDExpr == "" && a.settings.ModifierExpr == "" {
		return fields, nil
	}
	evaluator, err := newEvaluator(a.settings.Engine)
	if err != nil {
		return nil, err
	}
	exprClassifier, err := confscope.NewExprClassifier(a.settings.IDExpr, a.settings.ModifierExpr,
		confscope.WithEvaluator(evaluator),
		confscope.WithMaterializeFields(a.settings.IDField, a.settings.ModifierField),
		confscope.WithClassifierTypes(a.settings.ExprTypes...),
		confscope.WithEvaluatorLogger(confscope.SlogEvaluatorLogger(a.logger)),
	)
	if err != nil {
		return nil, err
	}
	return confscope.ClassifierChain{exprClassifier, fields}, nil
}

func newEvaluator(engine string) (confscope.Evaluator, error) {
	opts := []confscope.EvaluatorOption{
		confscope.WithProgramCache(confscope.NewProgramCache(0)),
		confscope.WithStandardFunctions(),
	}
	switch strings.ToLower(engine) {
	case "", "expr":
		return confscope.NewExprEvaluator(opts...), nil
	case "cel":
		return confscope.NewCELEvaluator(opts...), nil
	case "js":
		evaluator := confscope.NewJSEvaluator(opts...)
		if evaluator == nil {
			return nil, fmt.Errorf("engine js requires a build with the js_eval tag")
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}
