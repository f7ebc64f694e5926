// Command restroutes generates typed Go route groups and routers for
// annotated REST resources.
//
//	restroutes [flags] <dest>
//
// writes the generated packages below dest. See restroutes --help.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/broady/restroutes/internal/config"
	"github.com/broady/restroutes/internal/modroot"
	"github.com/broady/restroutes/routegen"
	"github.com/broady/restroutes/routegen/golang"
	"github.com/broady/restroutes/routegen/provider"
	"github.com/broady/restroutes/routegen/sink"
)

type CLI struct {
	Globals

	Gen     GenCmd     `cmd:"" default:"withargs" help:"Generate route groups and routers (default command)."`
	Check   CheckCmd   `cmd:"" help:"Print the route table without writing files."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Path to the configuration file (default: ./restroutes.toml if present)." short:"c" type:"path"`
	Module   string `help:"Import path of the destination root (default: resolved from go.mod)."`
	Provider string `help:"Descriptor provider: source or file." enum:"source,file," default:""`
	Dir      string `help:"Directory descriptor namespaces are resolved against." type:"path"`
	LogLevel string `help:"Log level: debug, info, warn or error." name:"log-level"`

	// Stdout and Stderr are replaced in tests.
	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintln(g.Stdout, Version())
	return nil
}

type GenCmd struct {
	Dest string `arg:"" help:"Destination root for the generated packages." type:"path"`
}

func (c *GenCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(c.Dest)
	if err != nil {
		return err
	}
	rc, err := g.runConfig(cfg, logger, sink.NewFilesystemSink(c.Dest, []byte(golang.Header)))
	if err != nil {
		return err
	}
	_, err = routegen.Generate(context.Background(), rc)
	return err
}

type CheckCmd struct {
	Dest string `arg:"" optional:"" default:"." help:"Destination root used to resolve the module path." type:"path"`
}

func (c *CheckCmd) Run(g *Globals) error {
	cfg, logger, err := g.load(c.Dest)
	if err != nil {
		return err
	}
	rc, err := g.runConfig(cfg, logger, nil)
	if err != nil {
		return err
	}
	result, err := routegen.Generate(context.Background(), rc)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTER\tVERB\tPATH\tOPERATION")
	for _, s := range result.Surfaces {
		for _, r := range s.Routes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s.%s\n", s.Router, r.Verb, r.Path, r.Resource, r.Operation)
		}
	}
	return tw.Flush()
}

// load reads the configuration and applies command-line overrides.
// Flags win over the environment, which wins over the file.
func (g *Globals) load(dest string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, nil, err
	}
	if g.Module != "" {
		cfg.Module = g.Module
	}
	if g.Provider != "" {
		cfg.Provider.Kind = provider.Kind(g.Provider)
	}
	if g.Dir != "" {
		cfg.Provider.Dir = g.Dir
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.Module == "" {
		cfg.Module, err = modroot.ImportPath(dest)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve module path of %s (set --module): %w", dest, err)
		}
	}
	return cfg, cfg.Logging.NewLogger(g.Stderr), nil
}

func (g *Globals) runConfig(cfg *config.Config, logger *slog.Logger, s sink.Sink) (*routegen.Config, error) {
	source, err := cfg.Source(logger)
	if err != nil {
		return nil, err
	}
	shared, variants := cfg.Surfaces()
	return &routegen.Config{
		Module:   cfg.Module,
		Shared:   shared,
		Variants: variants,
		Provider: source,
		Sink:     s,
		Logger:   logger,
	}, nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	if cli.Stdout == nil {
		cli.Stdout = os.Stdout
	}
	if cli.Stderr == nil {
		cli.Stderr = os.Stderr
	}
	options = append([]kong.Option{
		kong.Name("restroutes"),
		kong.Description("Generate typed Go route groups and routers for annotated REST resources."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := &CLI{}
	parser, err := newParser(cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
