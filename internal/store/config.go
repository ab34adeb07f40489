package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	CEI struct {
		LoginURL           string `yaml:"login_url" default:"https://ceiapp.b3.com.br/CEI_Responsivo/login.aspx" validate:"required,url"`
		AssetsURL          string `yaml:"assets_url" default:"https://ceiapp.b3.com.br/CEI_Responsivo/negociacao-de-ativos.aspx" validate:"required,url"`
		PassiveIncomesURL  string `yaml:"passive_incomes_url" default:"https://ceiapp.b3.com.br/CEI_Responsivo/ConsultarProventos.aspx" validate:"required,url"`
		Origin             string `yaml:"origin" default:"https://cei.b3.com.br" validate:"required,url"`
		UserAgent          string `yaml:"user_agent" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/84.0.4147.135 Safari/537.36" validate:"required"`
		TimeoutSeconds     int    `yaml:"timeout_seconds" default:"60" validate:"gt=0"`
		MaxConnections     int    `yaml:"max_connections" default:"30" validate:"gt=0"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"cei"`
	Output struct {
		Format string `yaml:"format" default:"table" validate:"oneof=table json csv"`
		Dir    string `yaml:"dir" default:"extracts"`
	} `yaml:"output"`
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CEI.TimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	var c Config
	// defaults.Set only fails on malformed tags
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return &c
}

// LoadConfig reads path over the defaults. An empty path, or a path that does
// not exist, yields the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Credentials reads the login from CEI_USERNAME and CEI_PASSWORD.
func Credentials() (username, password string) {
	return os.Getenv("CEI_USERNAME"), os.Getenv("CEI_PASSWORD")
}
