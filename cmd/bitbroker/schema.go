package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	engine "github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print or write the JSON schema of the engine configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the schema to this file instead of stdout",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	output := cmd.String("output")
	if output == "" {
		fmt.Println(schemaJSON)

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(output, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	fmt.Println(faintStyle.Render("schema written to " + output))

	return nil
}
