package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// appConfig holds everything tunable from the config file. Command-line
// flags override whatever the file says.
type appConfig struct {
	Port   string `yaml:"port"`
	Baud   int    `yaml:"baud"`
	Addr   string `yaml:"addr"`
	LogDir string `yaml:"log_dir"`
}

func defaultConfig() appConfig {
	return appConfig{
		Port:   "COM3",
		Baud:   115200,
		Addr:   ":9000",
		LogDir: "logs",
	}
}

func (c *appConfig) load(path string) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(yamlFile, c); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	return nil
}
