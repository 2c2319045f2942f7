package app

import (
	"errors"
	"path/filepath"
)

// Options collect validated inputs for running the CLI.
type Options struct {
	RepoDir string
	Release string
	Last    string
	Check   bool
	Workers int // 0 means use the configured value
}

// FlagValues mirrors the command-line flags so parsing and validation
// stay in one place.
type FlagValues struct {
	RepoDir string
	Release string
	Last    string
	Check   bool
	Workers int
}

// OptionsFromFlags validates user input and resolves default values.
func OptionsFromFlags(f FlagValues) (Options, error) {
	if f.Workers < 0 {
		return Options{}, errors.New("--workers must be positive")
	}
	if f.RepoDir == "" {
		f.RepoDir = "."
	}
	return Options{
		RepoDir: filepath.Clean(f.RepoDir),
		Release: f.Release,
		Last:    f.Last,
		Check:   f.Check,
		Workers: f.Workers,
	}, nil
}
