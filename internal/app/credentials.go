package app

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"faarc/internal/faclient"
)

// Environment variables holding the two session cookies from a logged-in
// browser. The values are opaque capabilities handed to the site client.
const (
	EnvCookieA = "FAARC_A_COOKIE"
	EnvCookieB = "FAARC_B_COOKIE"
)

// ResolveCredentials sources the session cookies from the environment,
// falling back to an interactive hidden prompt when stdin is a terminal.
// Missing credentials are a configuration error, reported before any
// archive state is touched.
func ResolveCredentials() (faclient.Credentials, error) {
	creds := faclient.Credentials{
		A: strings.TrimSpace(os.Getenv(EnvCookieA)),
		B: strings.TrimSpace(os.Getenv(EnvCookieB)),
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	var missing []string

	for _, c := range []struct {
		value *string
		env   string
		name  string
	}{
		{&creds.A, EnvCookieA, "a"},
		{&creds.B, EnvCookieB, "b"},
	} {
		if *c.value != "" {
			continue
		}
		if !interactive {
			missing = append(missing, c.env)
			continue
		}
		v, err := promptSecret(fmt.Sprintf("Value of your %q cookie", c.name))
		if err != nil {
			return faclient.Credentials{}, err
		}
		if v == "" {
			missing = append(missing, c.env)
			continue
		}
		*c.value = v
	}

	if len(missing) > 0 {
		return faclient.Credentials{}, fmt.Errorf(
			"missing required environment variable(s) %s; set them to the values of your login cookies from a logged-in browser",
			strings.Join(missing, ", "))
	}
	return creds, nil
}

func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
