package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// config is what the CLI remembers between invocations. Tokens are not kept
// here; the session store owns them.
type config struct {
	APIAddress string `json:"apiAddress"`
}

var errNotLoggedIn = errors.New(
	"you are not logged in; please use `praxis login` to continue",
)

// configPath returns the location of the CLI's config file,
// ~/.praxis/config.
func configPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return filepath.Join(home, ".praxis", "config"), nil
}

// loadConfig reads the config left by the last login. It returns
// errNotLoggedIn if there is none.
func loadConfig() (config, error) {
	cfg := config{}
	path, err := configPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, errNotLoggedIn
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "error reading %s", path)
	}
	if err = json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "%s is corrupt; please log in again", path)
	}
	if cfg.APIAddress == "" {
		return cfg, errNotLoggedIn
	}
	return cfg, nil
}

func (c config) save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(err, "error creating %s", filepath.Dir(path))
	}
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0600), "error writing %s", path)
}

// removeConfig forgets the API server. It is not an error if there is nothing
// to forget.
func removeConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error removing %s", path)
	}
	return nil
}
