package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/odvcencio/crawlterm/pkg/config"
	"github.com/odvcencio/crawlterm/pkg/terminal"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type startupOptions struct {
	configPath string
	logLevel   string
	debugAddr  string
	args       []string
}

func main() {
	opts, err := parseStartupOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printHelp(os.Stdout)
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfig)
	}
	os.Exit(dispatchSubcommand(opts))
}

// parseStartupOptions reads the global flags. Parsing stops at the
// first non-flag argument, which names the subcommand.
func parseStartupOptions(args []string) (startupOptions, error) {
	var opts startupOptions
	fs := flag.NewFlagSet("crawlterm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.configPath, "c", "", "Path to config file (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.StringVar(&opts.debugAddr, "debug-addr", "", "Serve metrics and the spectator stream on this loopback address")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func dispatchSubcommand(opts startupOptions) int {
	args := opts.args
	if len(args) == 0 {
		return runCommand(func(a []string) error { return runPlay(opts, a) }, nil)
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion(os.Stdout)
		return exitOK
	case "--help", "-h", "help":
		printHelp(os.Stdout)
		return exitOK
	case "play":
		return runCommand(func(a []string) error { return runPlay(opts, a) }, args[1:])
	case "history":
		return runCommand(func(a []string) error { return runHistoryCommand(opts, a) }, args[1:])
	case "prefs":
		return runCommand(func(a []string) error { return runPrefsCommand(opts, a) }, args[1:])
	case "status":
		return runCommand(func(a []string) error { return runStatusCommand(opts, a) }, args[1:])
	case "replay":
		return runCommand(func(a []string) error { return runReplayCommand(opts, a) }, args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "Error: unknown flag: %s\n", args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", args[0])
		}
		fmt.Fprintln(os.Stderr, "Run 'crawlterm --help' for usage.")
		return exitFailure
	}
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForError(err)
	}
	return exitOK
}

// loadConfig applies the global flag overrides on top of the layered
// configuration.
func loadConfig(opts startupOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.debugAddr != "" {
		cfg.Debug.Addr = opts.debugAddr
	}
	return cfg, nil
}

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))
}

const helpMarkdown = `# crawlterm

Play a console roguelike in your terminal with a rebuildable surface,
an on-screen keyboard, and a session journal.

## Usage

    crawlterm [flags] [command]

## Commands

| Command | Description |
|---------|-------------|
| ` + "`play [cmd args...]`" + ` | Start a session (default). A command overrides the game in preferences. |
| ` + "`history [--limit n]`" + ` | List recorded sessions |
| ` + "`history show <id>`" + ` | Show one session and its events |
| ` + "`history prune [--older-than d]`" + ` | Delete finished sessions |
| ` + "`prefs show`, `prefs path`, `prefs reset`" + ` | Inspect or reset preferences |
| ` + "`status`" + ` | Ask a running session for its state (nats bus) |
| ` + "`replay [--raw] <id>`" + ` | Read a session back from the replay stream (nats bus) |
| ` + "`version`" + ` | Print version information |

## Flags

- ` + "`-c, --config <path>`" + `: config file instead of the layered defaults
- ` + "`--log-level <level>`" + `: debug, info, warn or error
- ` + "`--debug-addr <host:port>`" + `: loopback address for metrics and spectators

## In game

- **F1** help, **F2** preferences, **F3** reset position
- **F4** lock position, **F5** quit, **F6** toggle keyboard
- **Ctrl-F** then **1** to **6** picks the same actions
`

func printHelp(w io.Writer) {
	terminal.NewWithOutput(w).Markdown(helpMarkdown)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "crawlterm %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(w, "  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, "  Built:      %s\n", buildDate)
	}
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}
