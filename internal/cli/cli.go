// Package cli implements the taskpulse terminal client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spf13/pflag"

	"github.com/taskpulse/taskpulse-go/internal/config"
	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/gateway"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/view"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitSignedIn = 3 // the command ended at the sign-in screen
)

var (
	errUsage = errors.New("usage")
	// errNotSignedIn ends a command that found no valid session without
	// going through the sign-in redirect.
	errNotSignedIn = errors.New("not signed in")
)

// Env is the process environment a run talks to.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// ReadPassword prompts for a secret without echo. Nil selects the terminal.
	ReadPassword func(prompt string) (string, error)
	// Clock drives session timers. Nil selects the wall clock.
	Clock clock.Clock
}

// signInNotice is the terminal's navigator: it tells the user to sign in
// again and remembers that it did.
type signInNotice struct {
	w  io.Writer
	mu sync.Mutex
	n  int
}

func (s *signInNotice) Redirect(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.n == 1 {
		fmt.Fprintf(s.w, "Not signed in (%s). Run `taskpulse login` to continue.\n", target)
	}
}

func (s *signInNotice) redirected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n > 0
}

func (s *signInNotice) reset() {
	s.mu.Lock()
	s.n = 0
	s.mu.Unlock()
}

// app is one CLI invocation with its wired components.
type app struct {
	env    Env
	cfg    *config.Config
	store  credstore.Store
	clock  *session.Clock
	gw     *gateway.Gateway
	tasks  *tasks.Client
	nav    *signInNotice
	closer func()
}

type globalFlags struct {
	configFile  string
	contextName string
	store       string
	credentials string
	apiURL      string
	logLevel    string
}

func parseGlobal(args []string, stderr io.Writer) (*globalFlags, []string, error) {
	g := &globalFlags{}
	fs := pflag.NewFlagSet("taskpulse", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&g.configFile, "config", "", "config file (default: taskpulse.yaml in the user config dir)")
	fs.StringVar(&g.contextName, "context", "", "credential context (profile) name")
	fs.StringVar(&g.store, "store", "", "credential store backend: memory, file or redis")
	fs.StringVar(&g.credentials, "credentials", "", "credentials file for the file store")
	fs.StringVar(&g.apiURL, "api-url", "", "API origin, e.g. http://localhost:8000")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, errUsage
	}
	return g, fs.Args(), nil
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadConfigFrom(g.configFile)
	if err != nil {
		return nil, err
	}
	if g.contextName != "" {
		cfg.Client.Context = g.contextName
	}
	if g.store != "" {
		cfg.Store.Backend = g.store
	}
	if g.credentials != "" {
		cfg.Store.Path = g.credentials
	}
	if g.apiURL != "" {
		cfg.Client.APIURL = g.apiURL
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, env Env, cfg *config.Config) (*app, error) {
	store, closer, err := credstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	nav := &signInNotice{w: env.Stderr}
	clk := session.New(store, env.Clock)
	gw := gateway.NewFromConfig(cfg.Client, store, clk, nav)
	return &app{
		env:    env,
		cfg:    cfg,
		store:  store,
		clock:  clk,
		gw:     gw,
		tasks:  tasks.NewClient(gw),
		nav:    nav,
		closer: closer,
	}, nil
}

// newView builds the session-aware task view. onExpiring nil keeps the
// default forced sign-out.
func (a *app) newView(onExpiring func()) *view.View {
	return view.New(a.clock, a.store, a.gw, a.tasks, view.Options{
		RefreshBuffer: a.cfg.Client.RefreshBuffer,
		OnExpiring:    onExpiring,
	})
}

// Run executes one CLI invocation and returns the process exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}

	g, rest, err := parseGlobal(args, env.Stderr)
	if err != nil {
		return ExitUsage
	}
	if len(rest) == 0 {
		fmt.Fprintln(env.Stderr, usageText)
		return ExitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n%s\n", rest[0], usageText)
		return ExitUsage
	}

	cfg, err := loadConfig(g)
	if err != nil {
		fmt.Fprintf(env.Stderr, "taskpulse: %v\n", err)
		return ExitError
	}
	logger.Init(cfg.LogLevel)

	a, err := newApp(ctx, env, cfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "taskpulse: %v\n", err)
		return ExitError
	}
	defer a.closer()

	err = cmd.run(ctx, a, rest[1:])
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(env.Stderr, "usage: taskpulse %s\n", cmd.usage)
		return ExitUsage
	case errors.Is(err, errNotSignedIn):
		return ExitSignedIn
	case err != nil && gateway.IsDisplayable(err):
		fmt.Fprintf(env.Stderr, "taskpulse: %v\n", err)
		return ExitError
	case err != nil || a.nav.redirected():
		return ExitSignedIn
	}
	return ExitOK
}

const usageText = `usage: taskpulse [global flags] <command> [args]

commands:
  register              create an account and sign in
  login                 sign in
  whoami                ask the server who the stored credential belongs to
  status                show session validity and remaining lifetime
  logout                forget the stored credential
  tasks                 list your tasks
  add <title>           create a task
  edit <id>             change a task's title or description
  done <id>             mark a task completed
  undo <id>             mark a task not completed
  rm <id>               delete a task
  watch                 wait until the session is about to expire

global flags:`
