package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/cut-trailing-bytes/internal/cli"
)

// Tests for print-config command.

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "cut_byte=00")
	cli.AssertContains(t, stdout, "progress=auto")
	cli.AssertContains(t, stdout, "confirm=false")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_From_Config_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".cut-trailing-bytes.json", []byte(`{
		// This is a comment
		"cut_byte": "ff",
		"progress": "never",
	}`))

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "cut_byte=ff")
	cli.AssertContains(t, stdout, "progress=never")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".cut-trailing-bytes.json"))
	cli.AssertNotContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_Explicit_Config_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("custom.json", []byte(`{"confirm": true}`))

	stdout := c.MustRun("--config", "custom.json", "print-config")
	cli.AssertContains(t, stdout, "confirm=true")

	stdout = c.MustRun("--config=custom.json", "print-config")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, "custom.json"))
}

func Test_Print_Config_Fails_When_Explicit_Config_Is_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--config", "nope.json", "print-config")

	cli.AssertContains(t, stderr, "config file not found: nope.json")
}

func Test_Print_Config_Shows_Global_Source_When_Global_Exists(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	globalPath := filepath.Join(c.Env["XDG_CONFIG_HOME"], "cut-trailing-bytes", "config.json")

	if err := os.MkdirAll(filepath.Dir(globalPath), 0o750); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(globalPath, []byte(`{"cut_byte": "aa"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "cut_byte=aa")
	cli.AssertContains(t, stdout, "global_config="+globalPath)
}
