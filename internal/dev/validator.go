package dev

import (
	"bytes"
	"context"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tau-dev/tau/internal/errors"
)

// Validator checks that changed sources are safe to load. It never runs the
// code it checks.
type Validator interface {
	Validate(ctx context.Context) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context) error

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context) error { return f(ctx) }

// GoValidatorConfig configures a GoValidator.
type GoValidatorConfig struct {
	// ProjectPath is the module root the build runs in.
	ProjectPath string

	// Entry is the main package, relative to ProjectPath.
	Entry string

	// Output is where the validated binary is written.
	Output string

	// CachePath is the Go build cache. Defaults to .tau/cache.
	CachePath string

	// Tags are build tags to pass to go build.
	Tags []string

	// Env are additional environment variables.
	Env []string

	// GoBin is the go command. Defaults to "go".
	GoBin string
}

// BuildResult contains the result of a validation build.
type BuildResult struct {
	Success  bool
	Duration time.Duration
	Output   string
	Error    error
}

// GoValidator parses the entry package to reject syntax errors quickly, then
// compiles it with go build.
type GoValidator struct {
	config GoValidatorConfig
}

// NewGoValidator creates a validator.
func NewGoValidator(config GoValidatorConfig) *GoValidator {
	if config.Entry == "" {
		config.Entry = "."
	}
	if config.Output == "" {
		config.Output = filepath.Join(config.ProjectPath, ".tau", "build", "app")
	}
	if config.CachePath == "" {
		config.CachePath = filepath.Join(config.ProjectPath, ".tau", "cache")
	}
	if config.GoBin == "" {
		config.GoBin = "go"
	}
	return &GoValidator{config: config}
}

// Output returns the path of the binary produced by a successful Validate.
func (v *GoValidator) Output() string {
	return v.config.Output
}

// Validate runs the syntax check and then the build.
func (v *GoValidator) Validate(ctx context.Context) error {
	if err := v.Parse(); err != nil {
		return err
	}
	return v.Build(ctx).Error
}

// Parse checks the syntax of every non-test Go file of the entry package.
func (v *GoValidator) Parse() error {
	dir := v.entryDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.NewValidationError("cannot read "+dir, err)
	}

	fset := token.NewFileSet()
	var list scanner.ErrorList
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		_, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.AllErrors|parser.SkipObjectResolution)
		if err == nil {
			continue
		}
		if el, ok := err.(scanner.ErrorList); ok {
			list = append(list, el...)
			continue
		}
		return errors.NewValidationError(err.Error(), err)
	}

	if len(list) == 0 {
		return nil
	}
	list.Sort()
	lines := make([]string, len(list))
	for i, e := range list {
		lines[i] = e.Error()
	}
	output := v.relativize(strings.Join(lines, "\n"))
	return errors.NewValidationError(output, list.Err())
}

// Build compiles the entry package to Output.
func (v *GoValidator) Build(ctx context.Context) BuildResult {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(v.config.Output), 0755); err != nil {
		return BuildResult{Duration: time.Since(start), Error: errors.New("E142").Wrap(err)}
	}
	if err := os.MkdirAll(v.config.CachePath, 0755); err != nil {
		return BuildResult{Duration: time.Since(start), Error: errors.New("E142").Wrap(err)}
	}

	args := []string{"build", "-o", v.config.Output}
	if len(v.config.Tags) > 0 {
		args = append(args, "-tags", strings.Join(v.config.Tags, ","))
	}
	args = append(args, packageArg(v.config.Entry))

	cmd := exec.CommandContext(ctx, v.config.GoBin, args...)
	cmd.Dir = v.config.ProjectPath
	cmd.Env = append(os.Environ(), "GOCACHE="+v.config.CachePath)
	cmd.Env = append(cmd.Env, v.config.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	output := stderr.String()
	if output == "" {
		output = stdout.String()
	}

	if err != nil {
		if _, ok := err.(*exec.Error); ok {
			return BuildResult{Duration: duration, Output: output, Error: errors.New("E142").Wrap(err)}
		}
		return BuildResult{
			Duration: duration,
			Output:   output,
			Error:    errors.NewValidationError(output, err),
		}
	}

	return BuildResult{Success: true, Duration: duration, Output: output}
}

func (v *GoValidator) entryDir() string {
	if filepath.IsAbs(v.config.Entry) {
		return v.config.Entry
	}
	return filepath.Join(v.config.ProjectPath, v.config.Entry)
}

func (v *GoValidator) relativize(output string) string {
	if v.config.ProjectPath == "" {
		return output
	}
	prefix := filepath.Clean(v.config.ProjectPath) + string(filepath.Separator)
	return strings.ReplaceAll(output, prefix, "")
}

// packageArg turns an entry path into a go build package argument.
func packageArg(entry string) string {
	if entry == "" || entry == "." {
		return "."
	}
	if filepath.IsAbs(entry) || strings.HasPrefix(entry, ".") {
		return entry
	}
	return "./" + filepath.ToSlash(entry)
}
