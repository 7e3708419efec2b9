package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvPath names the environment variable that points at a config file when
// --config is not given.
const EnvPath = "TVREMOTE_CONFIG"

const fileName = "config.jsonc"

// ResolvePath picks the config file: --config, then $TVREMOTE_CONFIG, then
// $XDG_CONFIG_HOME/tvremote, then ~/.config/tvremote.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(EnvPath)} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate, nil
		}
	}

	dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("no --config, $TVREMOTE_CONFIG, $XDG_CONFIG_HOME or home directory to locate config")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tvremote", fileName), nil
}
