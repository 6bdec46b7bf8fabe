// Command portvm resolves a named program to its port number.
//
//	portvm frontend            # prints 6969
//	portvm -dis backend        # prints the program's disassembly
//	portvm -list               # prints the registered program names
//	portvm -manifest my.yaml metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/cloudcmds/portvm"
	"github.com/cloudcmds/portvm/compiler"
	"github.com/cloudcmds/portvm/dis"
	"github.com/cloudcmds/portvm/manifest"
	"github.com/cloudcmds/portvm/service"
	"github.com/cloudcmds/portvm/vm"
)

func main() {
	list := flag.Bool("list", false, "List registered programs")
	disassemble := flag.Bool("dis", false, "Print the program's disassembly instead of executing it")
	manifestPath := flag.String("manifest", "", "Load additional program definitions from a YAML manifest")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	if err := run(logger, *list, *disassemble, *manifestPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

// cliEngine adapts a shared compiler to the portvm.Engine contract, so the
// service layer and the -list/-dis paths see the same program registry.
type cliEngine struct {
	compiler *compiler.Compiler
}

func (e cliEngine) Compile(name string) (*compiler.Code, error) {
	return e.compiler.Compile(name)
}

func (e cliEngine) Execute(ctx context.Context, code *compiler.Code) (int64, error) {
	return vm.Run(ctx, code)
}

var _ portvm.Engine = cliEngine{}

func run(logger zerolog.Logger, list, disassemble bool, manifestPath string, args []string) error {
	var compilerOpts []compiler.Option
	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return err
		}
		m, err := manifest.Parse(data)
		if err != nil {
			return err
		}
		compilerOpts, err = m.CompilerOptions()
		if err != nil {
			return err
		}
		logger.Debug().Str("manifest", manifestPath).
			Int("programs", len(m.Programs)).Msg("manifest loaded")
	}

	c, err := compiler.New(compilerOpts...)
	if err != nil {
		return err
	}

	if list {
		for _, name := range c.ProgramNames() {
			fmt.Println(name)
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("expected exactly one program name (try -list)")
	}
	name := args[0]

	if disassemble {
		code, err := c.Compile(name)
		if err != nil {
			return err
		}
		return dis.Fprint(os.Stdout, code)
	}

	svc, err := service.New(
		service.WithEngine(cliEngine{compiler: c}),
		service.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	port, err := svc.Port(context.Background(), name)
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString("%d", port))
	return nil
}
