package app

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/term"
)

func TestResolveCredentials(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("stdin is a terminal, the prompt fallback would engage")
	}

	t.Run("from environment", func(t *testing.T) {
		t.Setenv(EnvCookieA, " cookie-a ")
		t.Setenv(EnvCookieB, "cookie-b")

		creds, err := ResolveCredentials()
		if err != nil {
			t.Fatalf("ResolveCredentials() error = %v", err)
		}
		if creds.A != "cookie-a" || creds.B != "cookie-b" {
			t.Errorf("ResolveCredentials() = %+v, want trimmed cookie values", creds)
		}
	})

	t.Run("missing variables are named", func(t *testing.T) {
		t.Setenv(EnvCookieA, "cookie-a")
		t.Setenv(EnvCookieB, "")

		_, err := ResolveCredentials()
		if err == nil {
			t.Fatal("ResolveCredentials() succeeded without the b cookie")
		}
		if !strings.Contains(err.Error(), EnvCookieB) {
			t.Errorf("error %q does not name %s", err, EnvCookieB)
		}
		if strings.Contains(err.Error(), EnvCookieA) {
			t.Errorf("error %q names %s, which was set", err, EnvCookieA)
		}
	})
}
