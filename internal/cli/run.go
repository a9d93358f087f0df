package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/cut-trailing-bytes/internal/config"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/fs"
)

const (
	programName  = "cut-trailing-bytes"
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownCommand  = errors.New("unknown command")
)

// deps are the pieces of the outside world a command touches. Tests swap
// them through the CLI harness.
type deps struct {
	fs         fs.FS
	isTerminal func(any) bool
	confirm    func(ctx context.Context, o *IO, prompt string) (bool, error)
}

func defaultDeps() deps {
	return deps{
		fs:         fs.NewReal(),
		isTerminal: isTerminal,
		confirm:    promptConfirm,
	}
}

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the running command. A trim in progress stops at
// the next block and leaves the file untouched.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	return run(in, out, errOut, args, env, sigCh, defaultDeps())
}

func run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal, d deps) int {
	o := NewIO(in, out, errOut)

	if len(args) < 2 {
		printUsage(o, nil)

		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		Env:             env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	commands := []*Command{
		TrimCmd(&cfg, env, d),
		PrintConfigCmd(&cfg),
		InitConfigCmd(&cfg, env, d.fs),
	}

	if flags.help {
		printUsage(o, commands)

		return 0
	}

	if len(flags.remaining) == 0 {
		printUsage(o, commands)

		return 0
	}

	name := flags.remaining[0]

	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd.Run(ctx, o, flags.remaining[1:])
		}
	}

	// A bare command-like word that names no file is most likely a typo.
	// Paths and flags fall through to trim.
	if looksLikeCommand(name) && !fileExists(d.fs, cfg.EffectiveCwd, name) {
		o.ErrPrintln("error:", fmt.Errorf("%w: %s", errUnknownCommand, name))
		o.ErrPrintln()
		printUsage(o.stderrOnly(), commands)

		return 1
	}

	return commands[0].Run(ctx, o, flags.remaining)
}

// looksLikeCommand reports whether arg is a lowercase dashed word like
// "print-cfg".
func looksLikeCommand(arg string) bool {
	if arg == "" || strings.HasPrefix(arg, "-") || strings.ContainsAny(arg, "/.") {
		return false
	}

	for _, r := range arg {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}

	return strings.Contains(arg, "-")
}

func fileExists(fsys fs.FS, workDir, name string) bool {
	exists, err := fsys.Exists(filepath.Join(workDir, name))

	return err == nil && exists
}

type globalFlags struct {
	workDir    string
	configPath string
	help       bool
	remaining  []string
}

// parseGlobalFlags consumes leading global flags. It stops at the first
// argument it does not own, so trim flags like -d can come first when the
// command name is omitted.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			break
		}

		idx += consumed
	}

	flags.remaining = args[idx:]

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a global flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if arg == "-C" || arg == "--cwd" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// --config flag
	if arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// -h/--help before any command shows the global usage.
	if arg == "-h" || arg == helpFlag {
		flags.help = true

		return consumedOne, nil
	}

	return consumedNone, nil
}

func printUsage(o *IO, commands []*Command) {
	o.Println(programName + ` - cut trailing bytes from the end of a file

Usage: ` + programName + ` [options] [command] <file>

Without a command, trim is run on <file>.

Options:
  -C, --cwd <dir>        Run as if started in <dir>
      --config <file>    Use specified config file
  -h, --help             Show help

Commands:`)

	if commands == nil {
		commands = []*Command{
			TrimCmd(&config.Config{}, nil, deps{}),
			PrintConfigCmd(&config.Config{}),
			InitConfigCmd(&config.Config{}, nil, nil),
		}
	}

	for _, cmd := range commands {
		o.Println(cmd.HelpLine())
	}
}
