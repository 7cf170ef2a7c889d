// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk startup configuration document.
type Config struct {
	WikipediaDumpPath string `toml:"wikipedia_dump_path"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genregraph-builder: reading config %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("genregraph-builder: parsing config %s: %w", path, err)
	}
	if cfg.WikipediaDumpPath == "" {
		return nil, fmt.Errorf("genregraph-builder: config %s is missing wikipedia_dump_path", path)
	}
	return &cfg, nil
}
