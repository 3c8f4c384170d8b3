package conf

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/clinpipe/clinpipe/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before
// modifying a config file.
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

// DefaultTOML renders the default configuration as a TOML document.
func DefaultTOML() ([]byte, error) {
	v := GetViper()
	defaults := map[string]interface{}{
		"pipeline": map[string]interface{}{
			"workers":             v.GetInt("pipeline.workers"),
			"doc_workers":         v.GetInt("pipeline.doc_workers"),
			"op_timeout_seconds":  v.GetInt("pipeline.op_timeout_seconds"),
			"run_timeout_seconds": v.GetInt("pipeline.run_timeout_seconds"),
			"rate_per_second":     v.GetFloat64("pipeline.rate_per_second"),
			"rate_burst":          v.GetInt("pipeline.rate_burst"),
			"deterministic_ids":   v.GetBool("pipeline.deterministic_ids"),
			"id_namespace":        v.GetString("pipeline.id_namespace"),
		},
		"provenance": map[string]interface{}{
			"path": v.GetString("provenance.path"),
		},
		"log": map[string]interface{}{
			"json":  v.GetBool("log.json"),
			"theme": v.GetString("log.theme"),
		},
	}
	data, err := toml.Marshal(defaults)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal default config")
	}
	return data, nil
}

// WriteDefault writes the default configuration to path, backing up any
// existing file first.
func WriteDefault(path string) error {
	data, err := DefaultTOML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config to %s", path)
	}
	return nil
}
