// Package launcher manages the external game client process: locating the
// executable, stopping running instances and starting a logged-in session.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// clientPathEnv overrides client discovery without a config file.
const clientPathEnv = "ACCOUNTKEEPER_CLIENT"

// defaultCandidates are probed when neither config nor environment names
// the client executable.
var defaultCandidates = []string{
	`C:\Program Files (x86)\Steam\steam.exe`,
	`C:\Program Files\Steam\steam.exe`,
	"/usr/bin/steam",
	"/usr/games/steam",
}

// ProcessLauncher starts and stops the client via the OS process table.
type ProcessLauncher struct {
	path      string   // explicit executable path, may be empty
	procNames []string // process names to kill before a launch
	killWait  time.Duration
	logger    *zap.Logger
}

// New constructs a ProcessLauncher. path may be empty to rely on discovery;
// procNames must name at least one client process.
func New(path string, procNames []string, logger *zap.Logger) *ProcessLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessLauncher{
		path:      path,
		procNames: procNames,
		killWait:  10 * time.Second,
		logger:    logger,
	}
}

// FindClientPath resolves the client executable: explicit path first, then
// the environment override, then well-known install locations.
func (l *ProcessLauncher) FindClientPath() (string, bool) {
	candidates := make([]string, 0, 2+len(defaultCandidates))
	if l.path != "" {
		candidates = append(candidates, l.path)
	}
	if env := os.Getenv(clientPathEnv); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, defaultCandidates...)

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// KillRunningClient terminates every process whose name matches the
// configured client names and waits for them to exit, escalating to a hard
// kill after the grace period.
func (l *ProcessLauncher) KillRunningClient(ctx context.Context) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	var targets []*process.Process
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if l.matches(name) {
			targets = append(targets, p)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	for _, p := range targets {
		if err := p.TerminateWithContext(ctx); err != nil {
			l.logger.Debug("terminate failed, will kill", zap.Int32("pid", p.Pid), zap.Error(err))
		}
	}

	deadline := time.Now().Add(l.killWait)
	for _, p := range targets {
		for {
			running, err := p.IsRunningWithContext(ctx)
			if err != nil || !running {
				break
			}
			if time.Now().After(deadline) {
				if err := p.KillWithContext(ctx); err != nil {
					l.logger.Debug("kill failed", zap.Int32("pid", p.Pid), zap.Error(err))
				}
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
	return nil
}

// Launch stops any running client and starts a fresh one logged in as the
// given account. The secret is passed to the child process only and is
// never logged.
func (l *ProcessLauncher) Launch(ctx context.Context, username, plaintextSecret string) error {
	path, ok := l.FindClientPath()
	if !ok {
		return fmt.Errorf("client executable not found")
	}
	if err := l.KillRunningClient(ctx); err != nil {
		return fmt.Errorf("stop running client: %w", err)
	}

	// The client outlives this process; do not tie it to ctx.
	cmd := exec.Command(path, "-login", username, plaintextSecret)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	go func() { _ = cmd.Wait() }()

	l.logger.Info("client started", zap.String("path", path), zap.String("username", username))
	return nil
}

func (l *ProcessLauncher) matches(name string) bool {
	for _, want := range l.procNames {
		if strings.EqualFold(name, want) || strings.EqualFold(name, want+".exe") {
			return true
		}
	}
	return false
}
