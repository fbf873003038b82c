// Package manifest handles classrun.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "classrun.toml"

// Defaults applied before a file is parsed.
const (
	DefaultMethod    = "main"
	DefaultStorePath = ".classrun/classes.db"
	DefaultAddr      = ":4567"
)

// Manifest represents a classrun.toml configuration.
type Manifest struct {
	Run    Run    `toml:"run"`
	Log    Log    `toml:"log"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`

	// Dir is the directory containing the classrun.toml file (set at load
	// time). Relative paths are resolved against it.
	Dir string `toml:"-"`
}

// Run configures execution.
type Run struct {
	Method string `toml:"method"`
	Trace  bool   `toml:"trace"`
}

// Log configures commonlog output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Store configures the class store. Runs are recorded only when Enabled is
// set.
type Store struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// Server configures the RPC server.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present. Dir is
// the current directory.
func Default() *Manifest {
	dir, _ := os.Getwd()
	return &Manifest{
		Run:    Run{Method: DefaultMethod},
		Store:  Store{Path: DefaultStorePath},
		Server: Server{Addr: DefaultAddr},
		Dir:    dir,
	}
}

// Load parses a classrun.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Keys absent from the file
// keep their defaults.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if m.Run.Method == "" {
		m.Run.Method = DefaultMethod
	}
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a classrun.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// StorePath returns the absolute path of the class store database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogFile returns the absolute path of the log file, or "" for stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}
