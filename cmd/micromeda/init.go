package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"micromeda/internal/config"
)

func initCmd() *cobra.Command {
	var (
		catalog string
		dsn     string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a micromeda.yaml project file with default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(configPath, catalog, dsn)
		},
	}
	cmd.Flags().StringVarP(&catalog, "catalog", "d", "", "Genome properties catalog file")
	cmd.Flags().StringVar(&dsn, "store", "", "Default store path or DSN")
	return cmd
}

func runInit(path, catalog, dsn string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	project := config.Default()
	project.Catalog = catalog
	project.Store.DSN = dsn
	if err := config.WriteProjectConfig(path, project); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s.\n", path)
	return nil
}
