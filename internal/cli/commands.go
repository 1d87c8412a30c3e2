package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/taskpulse/taskpulse-go/internal/gateway"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"register": {usage: "register [--email E] [--password P] [email]", run: runRegister},
		"login":    {usage: "login [--email E] [--password P] [email]", run: runLogin},
		"whoami":   {usage: "whoami", run: runWhoami},
		"status":   {usage: "status", run: runStatus},
		"logout":   {usage: "logout", run: runLogout},
		"tasks":    {usage: "tasks [--all|--open|--done]", run: runTasks},
		"add":      {usage: "add [--description D] <title>", run: runAdd},
		"edit":     {usage: "edit [--title T] [--description D] <id>", run: runEdit},
		"done":     {usage: "done <id>", run: runToggle(true)},
		"undo":     {usage: "undo <id>", run: runToggle(false)},
		"rm":       {usage: "rm <id>", run: runRemove},
		"watch":    {usage: "watch [--buffer 60s]", run: runWatch},
	}
}

func newFlags(name string, a *app) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.env.Stderr)
	return fs
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func singleID(fs *pflag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, errUsage
	}
	return parseID(fs.Arg(0))
}

func runRegister(ctx context.Context, a *app, args []string) error {
	return authenticate(ctx, a, "register", args, a.gw.Register)
}

func runLogin(ctx context.Context, a *app, args []string) error {
	return authenticate(ctx, a, "login", args, a.gw.Login)
}

func authenticate(ctx context.Context, a *app, name string, args []string,
	call func(ctx context.Context, email, password string) (*gateway.AuthResult, error)) error {
	fs := newFlags(name, a)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or $"+passwordEnv+", or prompt)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" && fs.NArg() == 1 {
		*email = fs.Arg(0)
	}
	if *email == "" || fs.NArg() > 1 {
		return errUsage
	}
	pw, err := a.readPassword(*password)
	if err != nil {
		return err
	}
	res, err := call(ctx, *email, pw)
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// Rejected credentials on the sign-in screen itself are shown, not redirected.
		a.nav.reset()
		return errors.New(apiErr.Message)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Signed in as %s (user %d).\n", res.Email, res.UserID)
	if d, ok := a.clock.Remaining(res.Token); ok {
		fmt.Fprintf(a.env.Stdout, "Session valid for %s.\n", d.Round(time.Second))
	}
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	res, err := a.gw.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "%s (user %d)\n", res.Email, res.UserID)
	return nil
}

func runStatus(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	v := a.clock.Check(ctx)
	fmt.Fprintf(a.env.Stdout, "session: %s\n", v)
	if v != session.Valid {
		return errNotSignedIn
	}
	claims := a.clock.Claims(ctx)
	if id, ok := claims.SubjectID(); ok {
		fmt.Fprintf(a.env.Stdout, "user:    %d\n", id)
	}
	if claims.Email != "" {
		fmt.Fprintf(a.env.Stdout, "email:   %s\n", claims.Email)
	}
	if d, ok := a.clock.RemainingStored(ctx); ok {
		fmt.Fprintf(a.env.Stdout, "expires: %s (in %s)\n", claims.ExpiresAt.Local().Format(time.RFC1123), d.Round(time.Second))
	}
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	v := a.newView(nil)
	defer v.Close()
	if err := v.Logout(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	a.nav.reset()
	fmt.Fprintln(a.env.Stdout, "Signed out.")
	return nil
}

func runTasks(ctx context.Context, a *app, args []string) error {
	fs := newFlags("tasks", a)
	open := fs.Bool("open", false, "only tasks not yet completed")
	done := fs.Bool("done", false, "only completed tasks")
	fs.Bool("all", true, "all tasks")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || (*open && *done) {
		return errUsage
	}

	v := a.newView(nil)
	defer v.Close()
	snap, err := v.Activate(ctx)
	if err != nil || snap == nil {
		return err
	}

	fmt.Fprintf(a.env.Stdout, "%s (user %d), session ends in %s\n", snap.Email, snap.Subject, snap.Remaining.Round(time.Second))
	tw := tabwriter.NewWriter(a.env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tDESCRIPTION")
	shown := 0
	for _, t := range snap.Tasks {
		if (*open && t.IsCompleted) || (*done && !t.IsCompleted) {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, mark(t.IsCompleted), t.Title, describe(t.Description))
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown == 0 {
		fmt.Fprintln(a.env.Stdout, "No tasks.")
	}
	return nil
}

func mark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func describe(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add", a)
	desc := fs.String("description", "", "task description")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}
	in := tasks.TaskCreate{Title: strings.Join(fs.Args(), " ")}
	if fs.Changed("description") {
		in.Description = desc
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	t, err := a.tasks.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Created task %d: %s\n", t.ID, t.Title)
	return nil
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit", a)
	title := fs.String("title", "", "new title")
	desc := fs.String("description", "", "new description")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := singleID(fs)
	if err != nil {
		return err
	}
	var in tasks.TaskUpdate
	if fs.Changed("title") {
		in.Title = title
	}
	if fs.Changed("description") {
		in.Description = desc
	}
	if in.Title == nil && in.Description == nil {
		return errUsage
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	t, err := a.tasks.Update(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Updated task %d: %s\n", t.ID, t.Title)
	return nil
}

func runToggle(completed bool) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := newFlags("toggle", a)
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		id, err := singleID(fs)
		if err != nil {
			return err
		}
		t, err := a.tasks.Toggle(ctx, id, completed)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.env.Stdout, "%s %d: %s\n", mark(t.IsCompleted), t.ID, t.Title)
		return nil
	}
}

func runRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("rm", a)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := singleID(fs)
	if err != nil {
		return err
	}
	if err := a.tasks.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Deleted task %d.\n", id)
	return nil
}

// runWatch keeps the session view mounted until the near-expiry callback
// fires, then signs out. Cancelling ctx ends the watch cleanly.
func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("watch", a)
	buffer := fs.Duration("buffer", 0, "how long before expiry to end the session (default from config)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	if fs.Changed("buffer") {
		a.cfg.Client.RefreshBuffer = *buffer
	}

	expiring := make(chan struct{})
	var once sync.Once
	v := a.newView(func() { once.Do(func() { close(expiring) }) })
	defer v.Close()

	snap, err := v.Activate(ctx)
	if err != nil || snap == nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Watching session of %s (%d tasks); it ends in %s.\n",
		snap.Email, len(snap.Tasks), snap.Remaining.Round(time.Second))

	select {
	case <-ctx.Done():
		fmt.Fprintln(a.env.Stdout, "Stopped.")
		return nil
	case <-expiring:
	}
	fmt.Fprintln(a.env.Stdout, "Session is about to expire; signing out.")
	if err := v.Logout(context.Background()); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
