package session

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileOptions mirrors Options in YAML field names, letting the CLI
// tools load a device's tuning (retry counts, purge mode, baud rate)
// from a config file instead of always falling back to DefaultOptions,
// in the style of the teacher's device-table config loading.
type fileOptions struct {
	MaxDataRetry    int    `yaml:"max_data_retry"`
	MaxSearchRetry  int    `yaml:"max_search_retry"`
	MaxFrames       int    `yaml:"max_frames"`
	PurgeFirstFrame string `yaml:"purge_first_frame"`
	Baudrate        int    `yaml:"baudrate"`
}

func parsePurgeMode(s string) (PurgeMode, error) {
	switch s {
	case "", "none":
		return PurgeNone, nil
	case "m2s":
		return PurgeMasterToSlave, nil
	case "s2m":
		return PurgeSlaveToMaster, nil
	}
	return PurgeNone, newConfigErr("unknown purge_first_frame value: " + s)
}

type configErr string

func (e configErr) Error() string { return string(e) }

func newConfigErr(msg string) error { return configErr(msg) }

// LoadOptionsFile reads a YAML options file and validates it via
// Options.Valid, filling in defaults for anything left unset.
func LoadOptionsFile(path string) (Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	var fo fileOptions
	if err := yaml.Unmarshal(raw, &fo); err != nil {
		return Options{}, err
	}
	purge, err := parsePurgeMode(fo.PurgeFirstFrame)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		MaxDataRetry:    fo.MaxDataRetry,
		MaxSearchRetry:  fo.MaxSearchRetry,
		MaxFrames:       fo.MaxFrames,
		PurgeFirstFrame: purge,
		Baudrate:        Baudrate(fo.Baudrate),
	}
	if err := opts.Valid(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
