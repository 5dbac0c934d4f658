// Package config loads and saves the jc/bb configuration file and resolves
// credentials from flags, environment variables and profiles.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfig means the config file does not exist yet.
	ErrNoConfig = errors.New("no config file. Run 'jc config init' first")
	// ErrProfileNotFound means a named profile is missing from the file.
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile holds the credentials for one Atlassian site.
type Profile struct {
	Domain   string `json:"domain" yaml:"domain" toml:"domain" mapstructure:"domain"`
	Email    string `json:"email" yaml:"email" toml:"email" mapstructure:"email"`
	APIToken string `json:"apiToken" yaml:"apiToken" toml:"apiToken" mapstructure:"apiToken"`
}

type Defaults struct {
	Profile   string `json:"profile" yaml:"profile" toml:"profile" mapstructure:"profile"`
	Project   string `json:"project,omitempty" yaml:"project,omitempty" toml:"project,omitempty" mapstructure:"project"`
	Space     string `json:"space,omitempty" yaml:"space,omitempty" toml:"space,omitempty" mapstructure:"space"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" mapstructure:"format"`
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty" toml:"workspace,omitempty" mapstructure:"workspace"`
}

type Bitbucket struct {
	URL       string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty" mapstructure:"url"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty" mapstructure:"token"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty" toml:"username,omitempty" mapstructure:"username"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty" mapstructure:"password"`
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty" toml:"workspace,omitempty" mapstructure:"workspace"`
}

// File is the on-disk configuration.
type File struct {
	Profiles  map[string]Profile `json:"profiles" yaml:"profiles" toml:"profiles" mapstructure:"profiles"`
	Defaults  Defaults           `json:"defaults" yaml:"defaults" toml:"defaults" mapstructure:"defaults"`
	Bitbucket *Bitbucket         `json:"bitbucket,omitempty" yaml:"bitbucket,omitempty" toml:"bitbucket,omitempty" mapstructure:"bitbucket"`
}

// New returns an empty configuration with the default profile selected.
func New() *File {
	return &File{
		Profiles: map[string]Profile{},
		Defaults: Defaults{Profile: "default", Format: "json"},
	}
}

// DefaultPath returns the config file location. JC_CONFIG overrides it.
func DefaultPath() (string, error) {
	if p := os.Getenv("JC_CONFIG"); p != "" {
		return p, nil
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "jc", "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "jc", "config.json"), nil
}

func configType(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "yml", "yaml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// Load reads the config file at path. The format follows the extension
// (json, yaml or toml). A missing file returns ErrNoConfig.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	f := &File{}
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	return f, nil
}

// LoadOrNew is Load, but a missing file yields New().
func LoadOrNew(path string) (*File, error) {
	f, err := Load(path)
	if errors.Is(err, ErrNoConfig) {
		return New(), nil
	}
	return f, err
}

// Save writes f to path in the format given by the extension, creating the
// directory if needed. The file is readable by the owner only.
func Save(path string, f *File) error {
	var buf bytes.Buffer
	switch configType(path) {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_ = enc.Close()
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	default:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env from the working directory. Variables already set
// in the environment win. A missing file is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ProfileNames returns the profile names in sorted order.
func (f *File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupProfile finds a profile by name, ignoring case. Viper folds map
// keys to lower case on read.
func (f *File) lookupProfile(name string) (string, Profile, bool) {
	if p, ok := f.Profiles[name]; ok {
		return name, p, true
	}
	for k, p := range f.Profiles {
		if strings.EqualFold(k, name) {
			return k, p, true
		}
	}
	return "", Profile{}, false
}

// Profile returns the named profile, or the default profile when name is
// empty.
func (f *File) Profile(name string) (Profile, error) {
	if name == "" {
		name = f.Defaults.Profile
	}
	if name == "" {
		name = "default"
	}
	if _, p, ok := f.lookupProfile(name); ok {
		return p, nil
	}
	return Profile{}, f.profileNotFound(name)
}

func (f *File) profileNotFound(name string) error {
	return fmt.Errorf("%w: %s. Available: %s", ErrProfileNotFound, name, strings.Join(f.ProfileNames(), ", "))
}

// UseProfile makes name the default profile.
func (f *File) UseProfile(name string) error {
	key, _, ok := f.lookupProfile(name)
	if !ok {
		return f.profileNotFound(name)
	}
	f.Defaults.Profile = key
	return nil
}

// Mask shortens a secret to its first 8 characters.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return s + "..."
	}
	return s[:8] + "..."
}

// Masked returns a copy of f with tokens and passwords masked.
func (f *File) Masked() *File {
	out := *f
	out.Profiles = make(map[string]Profile, len(f.Profiles))
	for name, p := range f.Profiles {
		p.APIToken = Mask(p.APIToken)
		out.Profiles[name] = p
	}
	if f.Bitbucket != nil {
		bb := *f.Bitbucket
		bb.Token = Mask(bb.Token)
		bb.Password = Mask(bb.Password)
		out.Bitbucket = &bb
	}
	return &out
}
