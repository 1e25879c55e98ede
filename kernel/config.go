package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the boot configuration, usually read from a JSON file.
type Config struct {
	Policy      string `json:"policy"`
	NProc       int    `json:"nproc"`
	Pages       int    `json:"pages"`
	AgeSleepers bool   `json:"age_sleepers"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
}

func DefaultConfig() Config {
	return Config{
		Policy:    PolicyMLFQ.String(),
		NProc:     NPROC,
		Pages:     NPAGES,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads path over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv lets XV6_POLICY, XV6_LOG_LEVEL and XV6_PAGES override the file.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("XV6_POLICY"); v != "" {
		c.Policy = v
	}
	if v := os.Getenv("XV6_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("XV6_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XV6_PAGES: %w", err)
		}
		c.Pages = n
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.NProc < 1 || c.NProc > NPROC {
		return fmt.Errorf("nproc %d not in [1, %d]: %w", c.NProc, NPROC, ErrInvalidArgument)
	}
	if c.Pages < 0 {
		return fmt.Errorf("pages %d: %w", c.Pages, ErrInvalidArgument)
	}
	return nil
}
