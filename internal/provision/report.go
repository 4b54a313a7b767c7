package provision

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// EnvVar is one environment variable handed to the deployed application.
type EnvVar struct {
	Name  string
	Value string
}

// EnvironmentSetter publishes the resulting configuration to the hosting platform.
type EnvironmentSetter interface {
	SetEnvironment(ctx context.Context, vars []EnvVar) error
}

// CommandRunner runs an external command.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// HerokuCLI sets config vars with `heroku config:set`.
type HerokuCLI struct {
	Runner CommandRunner
	// App is passed as --app when set; otherwise the CLI picks the app from the git remote.
	App string
}

func (h *HerokuCLI) SetEnvironment(ctx context.Context, vars []EnvVar) error {
	args := []string{"config:set"}
	for _, v := range vars {
		if v.Value == "" {
			continue
		}
		args = append(args, v.Name+"="+v.Value)
	}
	if len(args) == 1 {
		return nil
	}
	if h.App != "" {
		args = append(args, "--app", h.App)
	}

	if err := h.Runner.Run(ctx, "heroku", args...); err != nil {
		return fmt.Errorf("heroku config:set: %w", err)
	}
	return nil
}

// PrintExports writes shell export lines for every non-empty variable, in order.
func PrintExports(w io.Writer, vars []EnvVar) {
	fmt.Fprintln(w, "Copy/paste these commands to set your local environment to use this hackpack:")
	fmt.Fprintln(w)
	for _, v := range vars {
		if v.Value == "" {
			continue
		}
		fmt.Fprintf(w, "export %s=%s\n", v.Name, v.Value)
	}
}
