package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/ardnew/folio/cli/cmd"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/pkg"
	"github.com/ardnew/folio/render"
)

const (
	baseConfig = "config"
	baseEnv    = ".env"
)

// CLI is the top-level command-line interface for folio.
type CLI struct {
	Log      logConfig    `embed:"" group:"log"      prefix:"log-"`
	Pprof    pprofConfig  `embed:"" group:"pprof"    prefix:"pprof-"`
	Template cmd.Template `embed:"" group:"template"`

	EnvFile []string `help:"Read FOLIO_* variables from dotenv file(s)"      name:"env-file" placeholder:"FILE" short:"e" type:"existingfile"`
	Data    []string `help:"Context data file(s) (YAML or JSON) or '-' for stdin" name:"data"     placeholder:"FILE" short:"d" type:"existingfile"`

	Render  cmd.Render  `cmd:"" default:"withargs" help:"Render a template"`
	AST     cmd.AST     `cmd:"" help:"Print the parsed template tree as YAML" name:"ast"`
	Store   cmd.Store   `cmd:"" help:"Store templates in, or list, the --db database"`
	Preview cmd.Preview `cmd:"" help:"Browse templates rendered interactively"`
}

// Run executes the folio CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig)

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// Template defaults come from the environment, so dotenv files named on
	// the command line must be read before kong applies defaults.
	environ, err := loadEnv(
		append([]string{pkg.ConfigPath(baseEnv)}, scanEnvFiles(args)...)...,
	)
	if err != nil {
		return err
	}

	conf, err := render.ConfigFromEnv(environ)
	if err != nil {
		return ErrEnv.Wrap(err)
	}

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cmd.TemplateVars(conf))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Parse command line
	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), templateGroup()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath+".yaml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Data)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	log.TraceContext(ctx, "command selected",
		slog.String("command", ktx.Command()),
		slog.Int("env_vars", len(environ)),
	)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx, &cli.Template)
}

func templateGroup() kong.Group {
	var group kong.Group

	group.Key = "template"
	group.Title = "Template options"

	return group
}
