package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/berryhill/draftfly-wp/internal/config"
)

func main() {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	header := "# DraftFly Configuration Example\n" +
		"# Copy this file to config.yaml and customize as needed.\n" +
		"# Secrets (WordPress app password, admin token, S3 credentials)\n" +
		"# come from the environment, not from this file.\n\n"
	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
	} else {
		if err := os.WriteFile(outputFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated example config: %s\n", outputFile)
	}
}
