/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var formats = []Format{FormatText, FormatYAML, FormatJSON}

// ParseFormat returns the output format named by s.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrFormat{Format: s}
}

type Color string

const (
	ColorAuto   Color = "auto"
	ColorAlways Color = "always"
	ColorNever  Color = "never"
)

var colors = []Color{ColorAuto, ColorAlways, ColorNever}

// ParseColor returns the color mode named by s.
func ParseColor(s string) (Color, error) {
	for _, c := range colors {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalid{Field: "color", Value: s, Help: HelpColors}
}

// Config holds the monitor settings. Devices limits the monitor to these
// USB device addresses, empty means all. Color applies to the text format
// only.
type Config struct {
	LogLevel     string   `json:"logLevel,omitempty"`
	Input        string   `json:"input,omitempty"` // pcap file or FIFO, "-" is stdin
	Devices      []uint16 `json:"devices,omitempty"`
	Format       Format   `json:"format,omitempty"`
	Color        Color    `json:"color,omitempty"`
	AllTransfers bool     `json:"allTransfers,omitempty"`
	Dump         bool     `json:"dump,omitempty"`
	filepath     string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values. A missing file is
// not an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("Config file %s not found, using defaults", c.filepath)
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", c.filepath, err)
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.LogLevel != "" && !log.ValidLevel(c.LogLevel) {
		return ErrInvalid{Field: "logLevel", Value: c.LogLevel, Help: log.HelpLevels}
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return ErrInvalid{Field: "format", Value: string(c.Format), Help: HelpFormats}
	}
	if _, err := ParseColor(string(c.Color)); err != nil {
		return err
	}
	if c.Input == "" {
		return ErrInvalid{Field: "input", Value: c.Input, Help: "Must be a file path or - for stdin."}
	}
	return nil
}

// WantDevice reports whether records of the given device pass the filter.
func (c *Config) WantDevice(device uint16) bool {
	if len(c.Devices) == 0 {
		return true
	}
	for _, d := range c.Devices {
		if d == device {
			return true
		}
	}
	return false
}

// Reset restores the default values and keeps the file path.
func (c *Config) Reset() {
	path := c.filepath
	*c = *NewDefaultConfig()
	c.filepath = path
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Input:    DefaultInput,
		Format:   DefaultFormat,
		Color:    DefaultColor,
		filepath: DefaultConfigPath(),
	}
}
