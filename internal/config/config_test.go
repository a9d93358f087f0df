package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/cut-trailing-bytes/internal/config"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// ignoreResolved drops fields that depend on the temp dir layout.
var ignoreResolved = cmpopts.IgnoreFields(config.Config{}, "EffectiveCwd", "Sources")

func Test_Load_Returns_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := config.Load(config.LoadInput{WorkDirOverride: dir, Env: map[string]string{}})
	require.NoError(t, err)

	if diff := cmp.Diff(config.Default(), cfg, ignoreResolved); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	if got, want := cfg.EffectiveCwd, dir; got != want {
		t.Fatalf("EffectiveCwd=%q, want=%q", got, want)
	}

	if diff := cmp.Diff(config.Sources{}, cfg.Sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func Test_Load_Project_Overrides_Global_When_Both_Exist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	globalPath := filepath.Join(xdg, "cut-trailing-bytes", "config.json")

	writeFile(t, globalPath, `{"cut_byte": "ff", "progress": "never", "confirm": true}`)
	writeFile(t, filepath.Join(dir, config.FileName), `{
		// project wins on cut_byte and confirm
		"cut_byte": "0x7f",
		"confirm": false,
	}`)

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: dir,
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
	})
	require.NoError(t, err)

	want := config.Config{CutByte: "0x7f", Progress: "never", Confirm: false}
	if diff := cmp.Diff(want, cfg, ignoreResolved); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	wantSources := config.Sources{Global: globalPath, Project: filepath.Join(dir, config.FileName)}
	if diff := cmp.Diff(wantSources, cfg.Sources); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	target, err := cfg.Target()
	require.NoError(t, err)

	if got, want := target, byte(0x7f); got != want {
		t.Fatalf("Target()=%#x, want=%#x", got, want)
	}
}

func Test_Load_Uses_Home_Config_When_XDG_Is_Unset(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".config", "cut-trailing-bytes", "config.json"), `{"progress": "always"}`)

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: t.TempDir(),
		Env:             map[string]string{"HOME": home},
	})
	require.NoError(t, err)

	if got, want := cfg.Progress, config.ProgressAlways; got != want {
		t.Fatalf("Progress=%q, want=%q", got, want)
	}
}

func Test_Load_Explicit_Config_Replaces_Project_When_Given(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{"cut_byte": "01"}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"cut_byte": "02"}`)

	cfg, err := config.Load(config.LoadInput{WorkDirOverride: dir, ConfigPath: "custom.json"})
	require.NoError(t, err)

	if got, want := cfg.CutByte, "02"; got != want {
		t.Fatalf("CutByte=%q, want=%q", got, want)
	}

	if got, want := cfg.Sources.Project, filepath.Join(dir, "custom.json"); got != want {
		t.Fatalf("Sources.Project=%q, want=%q", got, want)
	}
}

func Test_Load_Returns_ErrConfigFileNotFound_When_Explicit_Config_Is_Missing(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.LoadInput{WorkDirOverride: t.TempDir(), ConfigPath: "missing.json"})

	if !errors.Is(err, config.ErrConfigFileNotFound) {
		t.Fatalf("err=%v, want ErrConfigFileNotFound", err)
	}
}

func Test_Load_Returns_ErrConfigInvalid_When_File_Is_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"syntax":         `{"cut_byte": `,
		"unknown field":  `{"cut_bytes": "00"}`,
		"wrong type":     `{"confirm": "yes"}`,
		"bad byte":       `{"cut_byte": "zz"}`,
		"bad progress":   `{"progress": "sometimes"}`,
		"byte too large": `{"cut_byte": "100"}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.FileName), content)

			_, err := config.Load(config.LoadInput{WorkDirOverride: dir})

			if !errors.Is(err, config.ErrConfigInvalid) {
				t.Fatalf("err=%v, want ErrConfigInvalid", err)
			}
		})
	}
}

func Test_Load_Names_Global_File_When_Global_Is_Invalid(t *testing.T) {
	t.Parallel()

	xdg := t.TempDir()
	globalPath := filepath.Join(xdg, "cut-trailing-bytes", "config.json")
	writeFile(t, globalPath, `{"progress": "loud"}`)

	_, err := config.Load(config.LoadInput{
		WorkDirOverride: t.TempDir(),
		Env:             map[string]string{"XDG_CONFIG_HOME": xdg},
	})

	if !errors.Is(err, config.ErrInvalidProgress) {
		t.Fatalf("err=%v, want ErrInvalidProgress", err)
	}

	if got := err.Error(); !strings.Contains(got, globalPath) {
		t.Fatalf("error %q should name %s", got, globalPath)
	}
}

func Test_Load_Reads_Through_Given_FS_When_Set(t *testing.T) {
	t.Parallel()

	mem := fs.NewMem()
	require.NoError(t, mem.WriteFileAtomic("/work/"+config.FileName, []byte(`{"cut_byte": "aa"}`), 0o644))

	cfg, err := config.Load(config.LoadInput{WorkDirOverride: "/work", FS: mem})
	require.NoError(t, err)

	if got, want := cfg.CutByte, "aa"; got != want {
		t.Fatalf("CutByte=%q, want=%q", got, want)
	}
}

func Test_Load_Returns_ErrConfigFileRead_When_Read_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `{}`)

	chaosFS := fs.NewChaos(fs.NewReal(), 1, fs.ChaosConfig{ReadFailRate: 1.0})

	_, err := config.Load(config.LoadInput{WorkDirOverride: dir, FS: chaosFS})

	if !errors.Is(err, config.ErrConfigFileRead) {
		t.Fatalf("err=%v, want ErrConfigFileRead", err)
	}
}

func Test_Format_Output_Loads_Back_When_Written(t *testing.T) {
	t.Parallel()

	want := config.Config{CutByte: "ff", Progress: config.ProgressNever, Confirm: true}

	data, err := config.Format(want)
	require.NoError(t, err)

	if !strings.Contains(string(data), "// Byte value to cut") {
		t.Fatalf("formatted config should keep comments:\n%s", data)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), string(data))

	got, err := config.Load(config.LoadInput{WorkDirOverride: dir})
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, ignoreResolved); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
