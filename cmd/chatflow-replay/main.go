// Command chatflow-replay plays an HCL script of canvas events against a
// running chatflow server and prints every reply as a JSON line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/project-sai/chatflow/internal/cli"
	"github.com/project-sai/chatflow/internal/ctxlog"
	"github.com/project-sai/chatflow/internal/replay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type line struct {
	Step  int    `json:"step"`
	Event string `json:"event"`
	Reply string `json:"reply"`
	Data  any    `json:"data"`
}

func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("chatflow-replay", flag.ContinueOnError)
	flagSet.SetOutput(logW)
	flagSet.Usage = func() {
		fmt.Fprint(logW, `
Usage:
  chatflow-replay [options] SCRIPT|DIR

Options:
`)
		flagSet.PrintDefaults()
	}

	urlFlag := flagSet.String("url", "http://localhost:8080/socket.io/", "Server socket.io URL.")
	nsFlag := flagSet.String("namespace", "/", "socket.io namespace.")
	insecureFlag := flagSet.Bool("insecure-skip-verify", false, "Skip TLS certificate verification.")
	connectTimeoutFlag := flagSet.Duration("connect-timeout", 15*time.Second, "How long to wait for the connection and initial state.")
	verboseFlag := flagSet.Bool("v", false, "Log every emitted event.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return &cli.ExitError{Code: 2, Message: "exactly one replay script is required"}
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	ctx = ctxlog.WithLogger(ctx, slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{Level: level})))

	script, err := replay.LoadScript(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}

	results, runErr := replay.Run(ctx, replay.Options{
		URL:                *urlFlag,
		Namespace:          *nsFlag,
		InsecureSkipVerify: *insecureFlag,
		ConnectTimeout:     *connectTimeoutFlag,
	}, script)

	enc := json.NewEncoder(outW)
	for i, r := range results {
		if err := enc.Encode(line{Step: i, Event: r.Step.Event, Reply: r.Reply, Data: r.Data}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return runErr
}
