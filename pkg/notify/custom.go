package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// runScript runs the custom notification script with the result as JSON on stdin.
// the main fields are exported as SUFI2_* variables for scripts that don't parse JSON.
func runScript(ctx context.Context, path string, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cmd := exec.CommandContext(ctx, path) //nolint:gosec // path comes from user config
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = append(os.Environ(),
		"SUFI2_STATUS="+r.Status,
		"SUFI2_PROJECT="+r.Project,
		"SUFI2_STAGES="+r.Stages,
		"SUFI2_GOAL_TYPE="+r.GoalType,
		"SUFI2_SIMULATIONS="+strconv.Itoa(r.Simulations),
	)
	var out bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &out

	if err := cmd.Run(); err != nil {
		if text := strings.TrimSpace(out.String()); text != "" {
			return fmt.Errorf("script %s: %w, output: %s", path, err, text)
		}
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}
