package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/project-sai/chatflow/internal/app"
)

// EnvPrefix prefixes the environment variable behind every flag, e.g.
// CHATFLOW_LOG_LEVEL for --log-level.
const EnvPrefix = "CHATFLOW_"

const defaultEnvFile = ".env"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Parse processes command-line arguments against the process environment.
// It returns a validated config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseEnv(args, output, os.LookupEnv)
}

// ParseEnv is Parse with an explicit environment. Variables from the env
// file fill in keys lookup does not have.
func ParseEnv(args []string, output io.Writer, lookup LookupFunc) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("chatflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Chatflow - the editing and validation backend for the chatbot flow builder.

Usage:
  chatflow [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Optional flow file to load as the initial graph.

Every option can also be set through the environment, e.g. CHATFLOW_LOG_LEVEL
for --log-level. Variables are also read from the env file.

Options:
`)
		flagSet.PrintDefaults()
	}

	listenFlag := flagSet.String("listen", ":8080", "Address for the canvas endpoint, /health and /metrics.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for a standalone HTTP health check server. 0 is disabled.")
	flowFlag := flagSet.String("flow", "", "Flow file to load at startup.")
	fFlag := flagSet.String("f", "", "Flow file to load at startup (shorthand).")
	saveFlag := flagSet.String("save", "", "File saved flows are written to. Empty logs them instead.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	envFileFlag := flagSet.String("env-file", defaultEnvFile, "File with KEY=value lines read before the environment defaults are applied.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	explicit := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	dotenv, err := readEnvFile(*envFileFlag, explicit["env-file"])
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := applyEnv(flagSet, explicit, env); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if explicit["flow"] || explicit["f"] {
		path = *flowFlag
		if *fFlag != "" {
			path = *fFlag
		}
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else {
		path = *flowFlag
	}
	slog.Debug("Flow path determined.", "path", path)

	config, err := app.NewConfig(app.Config{
		ListenAddr:      *listenFlag,
		HealthcheckPort: *healthPortFlag,
		FlowPath:        path,
		SavePath:        *saveFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// EnvKey returns the environment variable behind a flag name.
func EnvKey(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnv sets every flag the command line left alone from its
// environment variable. The shorthand -f has no variable of its own.
func applyEnv(flagSet *flag.FlagSet, explicit map[string]bool, env LookupFunc) error {
	var errs []error
	flagSet.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] || f.Name == "f" || f.Name == "env-file" {
			return
		}
		key := EnvKey(f.Name)
		v, ok := env(key)
		if !ok {
			return
		}
		if err := flagSet.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	})
	return errors.Join(errs...)
}

// readEnvFile loads KEY=value pairs. A missing default file is not an error.
func readEnvFile(path string, required bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	slog.Debug("Env file loaded.", "path", path, "keys", len(vars))
	return vars, nil
}
