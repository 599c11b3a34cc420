// Package cropper runs the optional post-capture cropping script through an
// external interpreter, with an import preflight so a missing imaging stack
// fails with an actionable message instead of a script traceback.
package cropper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"framerip/internal/logging"
	"framerip/internal/services"
)

// Options configures one cropper invocation.
type Options struct {
	Script      string
	Interpreter string
	InputFolder string
	AutoInstall bool
	Debug       bool
}

// Result captures the script invocation outcome.
type Result struct {
	ExitCode int
	Elapsed  time.Duration
	Stdout   string
	Stderr   string
}

// requiredImports maps each import the script needs to the package name the
// installer knows it by. Pillow is the classic mismatch.
var requiredImports = map[string]string{
	"PIL":   "Pillow",
	"numpy": "numpy",
}

// safetyFlags are always passed to the script. They are not configurable:
// the cropper must never abort a batch over one unreadable image, must
// tolerate folders where nothing needs cropping, must not redo finished work,
// must descend into per-video subfolders, and must not flatten transparency.
var safetyFlags = []string{
	"--skip-unreadable",
	"--allow-empty",
	"--skip-existing",
	"--recursive",
	"--keep-alpha",
}

// Run preflights the interpreter's package availability, optionally installs
// what is missing, then executes the cropping script over the input folder.
// A non-zero script exit is a hard failure carrying the captured output.
func Run(ctx context.Context, logger *slog.Logger, opts Options) (Result, error) {
	log := logging.WithComponent(logger, "cropper")

	missing := missingPackages(ctx, opts.Interpreter)
	if len(missing) > 0 {
		installables := make([]string, 0, len(missing))
		for _, imp := range missing {
			installables = append(installables, requiredImports[imp])
		}
		if !opts.AutoInstall {
			return Result{}, services.Wrap(services.ErrDependencyMissing, "cropper", "preflight",
				fmt.Sprintf("missing packages %s; install with: %s -m pip install %s",
					strings.Join(missing, ", "), opts.Interpreter, strings.Join(installables, " ")), nil)
		}
		log.Info("installing missing cropper packages", logging.String("packages", strings.Join(installables, " ")))
		if err := installPackages(ctx, opts.Interpreter, installables); err != nil {
			return Result{}, err
		}
	}

	args := []string{opts.Script, opts.InputFolder}
	args = append(args, safetyFlags...)
	if opts.Debug {
		args = append(args, "--debug")
	}

	log.Info("running cropper script",
		logging.String("script", opts.Script),
		logging.String("folder", opts.InputFolder))
	start := time.Now()
	cmd := exec.CommandContext(ctx, opts.Interpreter, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	result := Result{
		ExitCode: exitCode,
		Elapsed:  time.Since(start),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "cropper", "run script",
			fmt.Sprintf("cropper exited with code %d: %s", result.ExitCode, firstLine(result.Stderr)), err)
	}
	log.Info("cropper finished", logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// missingPackages probes each required import with a one-liner. Any probe
// failure, including a missing interpreter, counts the package as missing;
// the error surfaces with remediation text instead of here.
func missingPackages(ctx context.Context, interpreter string) []string {
	var missing []string
	for _, imp := range sortedImports() {
		cmd := exec.CommandContext(ctx, interpreter, "-c", "import "+imp) //nolint:gosec
		if err := cmd.Run(); err != nil {
			missing = append(missing, imp)
		}
	}
	return missing
}

func installPackages(ctx context.Context, interpreter string, packages []string) error {
	args := append([]string{"-m", "pip", "install"}, packages...)
	cmd := exec.CommandContext(ctx, interpreter, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrInstallFailure, "cropper", "install packages",
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

func sortedImports() []string {
	imports := make([]string, 0, len(requiredImports))
	for imp := range requiredImports {
		imports = append(imports, imp)
	}
	// Deterministic probe order keeps remediation messages stable.
	sort.Strings(imports)
	return imports
}

func firstLine(output string) string {
	output = strings.TrimSpace(output)
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		return output[:idx]
	}
	return output
}
