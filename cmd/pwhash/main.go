// Command pwhash hashes, verifies and derives keys from passwords with
// Argon2id.
//
//	pwhash [-config file] [-v] <command> [flags]
//
// Commands:
//
//	hash      print the encoded hash of the password read from stdin
//	verify    check a password against -hash; exit status 1 on mismatch
//	derive    print a hex key derived from the password and -salt
//	salt      print a fresh base64 salt for derive
//	presets   list the named cost presets
//
// Passwords are read without echo when stdin is a terminal, otherwise as one
// line from stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errMismatch = errors.New("password does not match")

type globalFlags struct {
	configPath string
	verbose    bool
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, g globalFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

var commands = []command{
	{name: "hash", summary: "print the encoded hash of a password", run: runHash},
	{name: "verify", summary: "check a password against an encoded hash", run: runVerify},
	{name: "derive", summary: "derive a key from a password and salt", run: runDerive},
	{name: "salt", summary: "print a fresh base64 salt", run: runSalt},
	{name: "presets", summary: "list cost presets", run: runPresets},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pwhash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var g globalFlags
	fs.StringVar(&g.configPath, "config", "", "YAML config file (PWHASH_* env vars also apply)")
	fs.BoolVar(&g.verbose, "v", false, "log diagnostics to stderr")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return exitUsage
	}

	name := fs.Arg(0)
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(ctx, g, fs.Args()[1:], stdin, stdout, stderr)
		var uerr usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, flag.ErrHelp):
			return exitUsage
		case errors.As(err, &uerr):
			fmt.Fprintf(stderr, "pwhash %s: %v\n", name, err)
			return exitUsage
		case errors.Is(err, errMismatch):
			fmt.Fprintln(stderr, err)
			return exitFailure
		default:
			fmt.Fprintf(stderr, "pwhash %s: %v\n", name, err)
			return exitFailure
		}
	}

	fmt.Fprintf(stderr, "pwhash: unknown command %q\n", name)
	usage(fs, stderr)
	return exitUsage
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: pwhash [-config file] [-v] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "global flags:")
	fs.PrintDefaults()
}

// newService builds a Service from the config file, the environment and
// the cost flags, in increasing precedence.
func newService(g globalFlags, cost costFlags, stderr io.Writer) (*pwhash.Service, error) {
	cfg, err := pwhash.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cost.apply(&cfg.Password); err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false

	b := pwhash.New().WithConfig(cfg)
	if g.verbose {
		b = b.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	return b.Build()
}
