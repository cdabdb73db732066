package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoRustfmt is returned by FormatRust when rustfmt is not installed.
var ErrNoRustfmt = errors.New("rustfmt not found in PATH")

// FormatRust pipes code through rustfmt. On failure the input is
// returned unchanged along with the error.
func FormatRust(ctx context.Context, code string) (string, error) {
	path, err := exec.LookPath("rustfmt")
	if err != nil {
		return code, ErrNoRustfmt
	}
	cmd := exec.CommandContext(ctx, path, "--edition", "2021")
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return code, fmt.Errorf("rustfmt: %w", err)
		}
		return code, fmt.Errorf("rustfmt: %w: %s", err, msg)
	}
	return stdout.String(), nil
}
