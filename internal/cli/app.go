package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/logging"
)

// ErrUsage is returned for unknown commands and bad flags. The usage text has
// already been printed when it is returned.
var ErrUsage = errors.New("usage error")

const usage = `usage: fieldcrypt <command> [flags]

commands:
  derive   -salt EMAIL
  encrypt  (-key HEX | -salt EMAIL) [VALUE]
  decrypt  (-key HEX | -salt EMAIL) [-compat] [VALUE]
  migrate  -d DSN -email EMAIL [-dry-run]
  send     [-server URL] -email EMAIL -chat ID [MESSAGE]
  upload   [-server URL] -email EMAIL [-type MIME] FILE
`

// App runs one fieldcrypt command. Results go to out; prompts, usage and
// flag errors go to prompt so out can be piped.
type App struct {
	in     *bufio.Reader
	out    io.Writer
	prompt io.Writer
	logger logging.Logger
	codec  *cryptox.Codec
}

func NewApp(in io.Reader, out, prompt io.Writer, logger logging.Logger) *App {
	return &App{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: prompt,
		logger: logger,
		codec:  cryptox.NewCodec(logger),
	}
}

// Run dispatches args[0] to its command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.prompt, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "derive":
		return a.Derive(ctx, rest)
	case "encrypt":
		return a.Encrypt(ctx, rest)
	case "decrypt":
		return a.Decrypt(ctx, rest)
	case "migrate":
		return a.Migrate(ctx, rest)
	case "send":
		return a.Send(ctx, rest)
	case "upload":
		return a.Upload(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.prompt, usage)
		return nil
	default:
		fmt.Fprint(a.prompt, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// Derive prints the hex field key for a prompted password and -salt.
func (a *App) Derive(ctx context.Context, args []string) error {
	fs := a.flagSet("derive")
	salt := fs.String("salt", "", "account email used as salt")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *salt == "" {
		return fmt.Errorf("%w: -salt is required", ErrUsage)
	}

	pw, err := GetPassword(a.prompt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, cryptox.DeriveKey(pw, normalizeSalt(*salt)))
	return err
}

// Encrypt prints the marker envelope of one value.
func (a *App) Encrypt(ctx context.Context, args []string) error {
	fs := a.flagSet("encrypt")
	var kf keyFlags
	kf.register(fs)
	if err := a.parse(fs, args); err != nil {
		return err
	}

	key, err := a.resolveKey(kf)
	if err != nil {
		return err
	}
	value, err := a.value(fs)
	if err != nil {
		return err
	}

	enc, err := a.codec.Encrypt(ctx, value, key)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	_, err = fmt.Fprintln(a.out, enc)
	return err
}

// Decrypt prints the plaintext of one envelope. Plain input is printed as is.
// With -compat a value that does not decrypt is printed still encoded instead
// of failing, the way the server read path behaves.
func (a *App) Decrypt(ctx context.Context, args []string) error {
	fs := a.flagSet("decrypt")
	var kf keyFlags
	kf.register(fs)
	compat := fs.Bool("compat", false, "never fail, print undecryptable values unchanged")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	key, err := a.resolveKey(kf)
	if err != nil {
		return err
	}
	value, err := a.value(fs)
	if err != nil {
		return err
	}

	var plain string
	if *compat {
		plain = a.codec.DecryptBackwardsCompatible(ctx, value, key)
	} else if plain, err = a.codec.Decrypt(value, key); err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	_, err = fmt.Fprintln(a.out, plain)
	return err
}

type keyFlags struct {
	keyHex string
	salt   string
}

func (k *keyFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&k.keyHex, "key", "", "field key as 64 hex characters")
	fs.StringVar(&k.salt, "salt", "", "account email; the password is prompted for")
}

func (a *App) resolveKey(k keyFlags) (cryptox.Key, error) {
	switch {
	case k.keyHex != "" && k.salt != "":
		return cryptox.Key{}, fmt.Errorf("%w: -key and -salt are mutually exclusive", ErrUsage)
	case k.keyHex != "":
		return cryptox.ParseKey(k.keyHex)
	case k.salt != "":
		pw, err := GetPassword(a.prompt)
		if err != nil {
			return cryptox.Key{}, err
		}
		return cryptox.DeriveKey(pw, normalizeSalt(k.salt)), nil
	default:
		return cryptox.Key{}, fmt.Errorf("%w: one of -key or -salt is required", ErrUsage)
	}
}

// value takes the positional arguments as the value, or prompts for it.
func (a *App) value(fs *flag.FlagSet) (string, error) {
	if fs.NArg() > 0 {
		return strings.Join(fs.Args(), " "), nil
	}
	return GetSimpleText(a.in, "Value", a.prompt)
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.prompt)
	return fs
}

func (a *App) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// normalizeSalt matches how the server stores account emails.
func normalizeSalt(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
