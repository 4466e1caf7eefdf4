package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	cerr "github.com/saeidalz13/battleship-board/internal/error"
	mb "github.com/saeidalz13/battleship-board/models/battleship"
)

const (
	StageProd = "prod"
	StageDev  = "dev"

	defaultPort = 8000
)

type Config struct {
	Stage       string
	Port        int
	DatabaseUrl string
	FleetFile   string
}

// Reads the server settings from the environment. Outside prod
// the variables are loaded from envFile first.
func LoadConfig(envFile string) (Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Stage:       os.Getenv("STAGE"),
		Port:        defaultPort,
		DatabaseUrl: os.Getenv("DATABASE_URL"),
		FleetFile:   os.Getenv("FLEET_FILE"),
	}
	if cfg.Stage != StageDev && cfg.Stage != StageProd {
		return Config{}, fmt.Errorf("stage must be either dev or prod, got: %q", cfg.Stage)
	}

	if portEnv := os.Getenv("PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q: %w", portEnv, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// FleetConfig is the YAML layout of the fleet a board
// is built from when a player sends no placements.
//
//	ships:
//	  - start: {row: 0, column: 0}
//	    end: {row: 0, column: 3}
type FleetConfig struct {
	Ships []mb.Placement `yaml:"ships"`
}

func LoadFleetConfig(path string) (*FleetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet config: %w", err)
	}

	var config FleetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse fleet config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Only checks the placements themselves; fleet rules are
// enforced when a board is built.
func (c *FleetConfig) Validate() error {
	if len(c.Ships) == 0 {
		return cerr.ErrFleetConfigInvalid("no ships")
	}
	for i, placement := range c.Ships {
		if err := placement.Validate(i); err != nil {
			return cerr.ErrFleetConfigInvalid(err.Error())
		}
	}
	return nil
}

// The fleet every new board uses by default. An empty path
// gives the canonical layout.
func DefaultFleet(path string) ([]mb.Placement, error) {
	if path == "" {
		return mb.CanonicalFleet(), nil
	}

	config, err := LoadFleetConfig(path)
	if err != nil {
		return nil, err
	}
	return config.Ships, nil
}
