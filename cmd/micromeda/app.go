package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"micromeda/internal/config"
	"micromeda/internal/graph"
	"micromeda/internal/logging"
	"micromeda/internal/parser"
)

var (
	configPath string
	cfg        *config.ProjectConfig
	logger     *zap.Logger
)

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.New(cfg.Logging)
	return nil
}

// catalogPath prefers the flag value over the config file.
func catalogPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg != nil && cfg.Catalog != "" {
		return cfg.Catalog, nil
	}
	return "", fmt.Errorf("a property catalog is required (--catalog or catalog in %s)", configPath)
}

func loadCatalog(flag string) (*graph.Graph, error) {
	path, err := catalogPath(flag)
	if err != nil {
		return nil, err
	}
	g, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", zap.String("path", path), zap.Int("properties", g.Len()))
	return g, nil
}

// storeDSN prefers the flag value over the config file.
func storeDSN(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg != nil && cfg.Store.DSN != "" {
		return cfg.Store.DSN, nil
	}
	return "", fmt.Errorf("a results store is required (--input or store.dsn in %s)", configPath)
}
