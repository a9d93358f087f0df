package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cut-trailing-bytes/internal/config"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/fs"
)

var (
	errConfigExists = errors.New("config file already exists (use --force to overwrite)")
	errNoConfigHome = errors.New("cannot locate user config dir (set $XDG_CONFIG_HOME or $HOME)")
)

// InitConfigCmd returns the init-config command.
func InitConfigCmd(cfg *config.Config, env map[string]string, fsys fs.FS) *Command {
	flags := flag.NewFlagSet("init-config", flag.ContinueOnError)
	flags.Bool("global", false, "Write the user config instead of "+config.FileName)
	flags.Bool("force", false, "Overwrite an existing config file")

	return &Command{
		Flags: flags,
		Usage: "init-config [flags]",
		Short: "Write a commented default config file",
		Long: `Write a config file with every option set to its default and documented.

By default the project file ` + config.FileName + ` is written to the working
directory. With --global the user config is written instead.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: init-config takes no arguments", errTooManyArgs)
			}

			global, _ := flags.GetBool("global")
			force, _ := flags.GetBool("force")

			return execInitConfig(o, cfg, env, fsys, global, force)
		},
	}
}

func execInitConfig(o *IO, cfg *config.Config, env map[string]string, fsys fs.FS, global, force bool) error {
	path := filepath.Join(cfg.EffectiveCwd, config.FileName)

	if global {
		path = config.GlobalPath(env)
		if path == "" {
			return errNoConfigHome
		}
	}

	exists, err := fsys.Exists(path)
	if err != nil {
		return fmt.Errorf("check %s: %w", path, err)
	}

	if exists && !force {
		return fmt.Errorf("%w: %s", errConfigExists, path)
	}

	data, err := config.Format(config.Default())
	if err != nil {
		return err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := fsys.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	o.Println("wrote " + path)

	return nil
}
