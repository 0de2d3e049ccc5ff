package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/kdf"
	"github.com/MrEthical07/pwhash/password"
)

// usageError is a bad invocation; it exits with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// costFlags are the -preset, -ops and -mem overrides shared by hash and
// derive. Explicit ops/mem win over a preset.
type costFlags struct {
	preset string
	ops    uint64
	mem    string
}

func (c *costFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.preset, "preset", "", "cost preset: interactive, moderate or sensitive")
	fs.Uint64Var(&c.ops, "ops", 0, "time cost (passes)")
	fs.StringVar(&c.mem, "mem", "", "memory cost, e.g. 64MiB")
}

func (c costFlags) apply(p *pwhash.PasswordConfig) error {
	if c.preset != "" {
		p.Preset = c.preset
	}
	if c.ops == 0 && c.mem == "" {
		return nil
	}

	ops, mem := p.Cost()
	if c.ops != 0 {
		ops = kdf.OpsLimit(c.ops)
	}
	if c.mem != "" {
		parsed, err := pwhash.ParseMemLimit(c.mem)
		if err != nil {
			return usageErrorf("-mem: %v", err)
		}
		mem = parsed
	}
	p.Preset = ""
	p.Ops = ops
	p.Mem = mem
	return nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("pwhash "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags maps every parse failure to flag.ErrHelp; the FlagSet has
// already reported it.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return flag.ErrHelp
	}
	return nil
}

func runHash(ctx context.Context, g globalFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("hash", stderr)
	var cost costFlags
	cost.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := newService(g, cost, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	pw, err := readPassword(stdin, stderr)
	if err != nil {
		return err
	}
	defer clear(pw)

	encoded, err := svc.HashPassword(ctx, pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, encoded)
	return nil
}

func runVerify(ctx context.Context, g globalFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", stderr)
	encoded := fs.String("hash", "", "encoded hash to check against (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *encoded == "" {
		return usageErrorf("-hash is required")
	}

	svc, err := newService(g, costFlags{}, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	pw, err := readPassword(stdin, stderr)
	if err != nil {
		return err
	}
	defer clear(pw)

	if !svc.VerifyPassword(ctx, *encoded, pw) {
		return errMismatch
	}
	fmt.Fprintln(stdout, "ok")

	if upgrade, err := svc.NeedsRehash(*encoded); err == nil && upgrade {
		fmt.Fprintln(stderr, "note: hash uses a weaker cost than configured; rehash it")
	}
	return nil
}

func runDerive(ctx context.Context, g globalFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("derive", stderr)
	var cost costFlags
	cost.register(fs)
	saltFlag := fs.String("salt", "", "base64 salt of 16 bytes (required, see `pwhash salt`)")
	length := fs.Uint64("len", 32, "output length in bytes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	salt, err := parseSalt(*saltFlag)
	if err != nil {
		return usageErrorf("%v", err)
	}

	svc, err := newService(g, cost, stderr)
	if err != nil {
		return err
	}
	defer svc.Close()

	pw, err := readPassword(stdin, stderr)
	if err != nil {
		return err
	}
	defer clear(pw)

	ops, mem := svc.Config().Password.Cost()
	key, err := svc.DeriveFromPassword(ctx, *length, pw, salt, ops, mem)
	if err != nil {
		return err
	}
	defer key.Wipe()

	fmt.Fprintln(stdout, hex.EncodeToString(key.Bytes()))
	return nil
}

func runSalt(_ context.Context, _ globalFlags, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("salt", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	salt := password.GenerateSalt()
	fmt.Fprintln(stdout, base64.RawStdEncoding.EncodeToString(salt[:]))
	return nil
}

func runPresets(_ context.Context, _ globalFlags, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("presets", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOPS\tMEM")
	for _, p := range []kdf.Preset{kdf.Interactive, kdf.Moderate, kdf.Sensitive} {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Name, p.Ops, formatMem(p.Mem))
	}
	return tw.Flush()
}

// parseSalt accepts standard base64 with or without padding.
func parseSalt(s string) (password.Salt, error) {
	var salt password.Salt
	if s == "" {
		return salt, errors.New("-salt is required")
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return salt, errors.Wrap(err, "salt is not base64")
	}
	if len(raw) != len(salt) {
		return salt, errors.Errorf("salt must be %d bytes, got %d", len(salt), len(raw))
	}
	copy(salt[:], raw)
	return salt, nil
}

func formatMem(m kdf.MemLimit) string {
	switch {
	case m >= kdf.GiB && m%kdf.GiB == 0:
		return fmt.Sprintf("%dGiB", m/kdf.GiB)
	case m >= kdf.MiB && m%kdf.MiB == 0:
		return fmt.Sprintf("%dMiB", m/kdf.MiB)
	case m >= kdf.KiB && m%kdf.KiB == 0:
		return fmt.Sprintf("%dKiB", m/kdf.KiB)
	default:
		return fmt.Sprintf("%dB", uint64(m))
	}
}
