package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordEnv lets scripts pass the password without a flag.
const passwordEnv = "TASKPULSE_PASSWORD"

// readPassword resolves a password from the flag, the environment, or a
// no-echo prompt, in that order.
func (a *app) readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	if a.env.ReadPassword != nil {
		return a.env.ReadPassword("Password: ")
	}
	return promptPassword(a.env.Stdin, a.env.Stderr, "Password: ")
}

// promptPassword reads from the terminal without echo, or one line from in
// when stdin is not a terminal.
func promptPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
