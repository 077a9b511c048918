package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"
)

const (
	BadgerValuesDirName = "values"
)

type Volume struct {
	// Directory holding the badger-backed volume. Empty selects an
	// in-memory volume scoped to the session.
	Directory string `yaml:"directory,omitempty"`
}

type Source struct {
	// BaseURL of the bulk content bundle used to seed files never written
	// locally. Empty disables the source.
	BaseURL       string        `yaml:"baseURL,omitempty"`
	CacheTTL      time.Duration `yaml:"cacheTTL,omitempty"`
	RatePerSecond float64       `yaml:"ratePerSecond,omitempty"`
	Burst         int           `yaml:"burst,omitempty"`
}

type SSH struct {
	Address     string `yaml:"address,omitempty"`
	HostKeyPath string `yaml:"hostKeyPath,omitempty"`
	// AuthorizedKeys holds public keys in authorized_keys format. Empty
	// permits any key.
	AuthorizedKeys []string `yaml:"authorizedKeys,omitempty"`
}

type Console struct {
	Prompt string `yaml:"prompt,omitempty"`
}

type Config struct {
	Volume  Volume  `yaml:"volume"`
	Source  Source  `yaml:"source"`
	SSH     SSH     `yaml:"ssh"`
	Console Console `yaml:"console"`
}

var (
	ErrConfigFileUnreadable     = errors.New("config file could not be read")
	ErrConfigFileUnmarshallable = errors.New("config file could not be parsed")
	ErrNegativeSourceRate       = errors.New("source.ratePerSecond and source.burst must be non-negative")
	ErrHostKeyGeneration        = errors.New("failed to generate SSH host key")
)

func Default() *Config {
	return &Config{
		SSH:     SSH{Address: ":2323"},
		Console: Console{Prompt: "]"},
	}
}

// LoadConfig reads a YAML config file, layered over the defaults.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, ErrConfigFileUnreadable
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ErrConfigFileUnmarshallable
	}

	if cfg.Source.RatePerSecond < 0 || cfg.Source.Burst < 0 {
		return nil, ErrNegativeSourceRate
	}
	if cfg.Console.Prompt == "" {
		cfg.Console.Prompt = "]"
	}

	return cfg, nil
}

// EnsureHostKey generates an ed25519 host key at the configured path if one
// does not already exist, and returns the path.
func (c *Config) EnsureHostKey(homeDir string) (string, error) {
	keyPath := c.SSH.HostKeyPath
	if keyPath == "" {
		keyPath = filepath.Join(homeDir, "ssh", "host_key")
	}

	if _, err := os.Stat(keyPath); err == nil {
		return keyPath, nil
	}

	if err := generateHostKey(keyPath); err != nil {
		return "", errors.Join(ErrHostKeyGeneration, err)
	}
	return keyPath, nil
}

func generateHostKey(keyPath string) error {
	dir := filepath.Dir(keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	privateKeyPEM, err := ssh.MarshalPrivateKey(privateKey, "")
	if err != nil {
		return err
	}

	return os.WriteFile(keyPath, pem.EncodeToMemory(privateKeyPEM), 0600)
}
