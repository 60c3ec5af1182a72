package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "lorabridge"

// pathEnv is what DefaultDataDir needs from the host, split out for tests.
type pathEnv struct {
	getenv func(string) string
	home   string
	root   bool
}

// DefaultDataDir returns where the gateway keeps its settings store when no
// dataDir is configured. Under systemd with StateDirectory= it uses
// $STATE_DIRECTORY; root gets /var/lib/lorabridge; other users get
// $XDG_STATE_HOME/lorabridge or ~/.local/state/lorabridge. Without a home
// directory it falls back to ./data.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return dataDir(pathEnv{getenv: os.Getenv, home: home, root: os.Geteuid() == 0})
}

func dataDir(env pathEnv) string {
	// systemd may pass several colon-separated dirs; the first is ours.
	if sd := env.getenv("STATE_DIRECTORY"); sd != "" {
		first, _, _ := strings.Cut(sd, ":")
		return first
	}
	if env.root {
		return filepath.Join("/var/lib", appDir)
	}
	if xdg := env.getenv("XDG_STATE_HOME"); filepath.IsAbs(xdg) {
		return filepath.Join(xdg, appDir)
	}
	if env.home == "" {
		return "./data"
	}
	return filepath.Join(env.home, ".local", "state", appDir)
}
