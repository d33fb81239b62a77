package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// errNotLoggedIn is what authenticated commands report when no usable
// session is present.
var errNotLoggedIn = errors.New("not logged in (run 'lenscap login')")

// resumeSession rehydrates the persisted session and fails fast when the
// user has to log in first.
func resumeSession(cmd *cobra.Command, sess *appSession) error {
	if !sess.guard.Resume(cmd.Context()) {
		return errNotLoggedIn
	}
	return nil
}

// resolvePassword prefers the flag value and falls back to one line from
// stdin, which keeps passwords out of shell history for interactive use.
func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func formatUploadedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
