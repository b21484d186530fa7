// Package config reads the optional YAML scan file used by the netscout CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcuoli/go-netscout/pkg/netscout"
	"github.com/marcuoli/go-netscout/pkg/netscout/icmp"
	"gopkg.in/yaml.v2"
)

// ScanConfig mirrors netscout.Options.
type ScanConfig struct {
	Timeout    string   `yaml:"timeout"`
	Workers    int      `yaml:"workers"`
	Correlate  bool     `yaml:"correlate"`
	Checksum   string   `yaml:"checksum"`
	EchoID     int      `yaml:"echo_id"`
	Interfaces []string `yaml:"interfaces"`
	Exclude    []string `yaml:"exclude"`
}

// EnrichConfig mirrors netscout.EnrichOptions.
type EnrichConfig struct {
	Enabled    bool     `yaml:"enabled"`
	ARP        bool     `yaml:"arp"`
	Vendor     bool     `yaml:"vendor"`
	DNS        bool     `yaml:"dns"`
	Timeout    string   `yaml:"timeout"`
	Workers    int      `yaml:"workers"`
	DNSServers []string `yaml:"dns_servers"`
	OUIFile    string   `yaml:"oui_file"`
}

// OutputConfig controls what the CLI prints.
type OutputConfig struct {
	AliveOnly bool `yaml:"alive_only"`
}

// Config represents the configuration information for a scan run
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Enrich EnrichConfig `yaml:"enrich"`
	Output OutputConfig `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Timeout:  netscout.DefaultTimeout.String(),
			Workers:  netscout.DefaultWorkers,
			Checksum: icmp.ChecksumStandard.String(),
		},
		Enrich: EnrichConfig{
			ARP:     true,
			Vendor:  true,
			DNS:     true,
			Timeout: "2s",
			Workers: 32,
		},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	filename, err := filepath.Abs(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that are parsed lazily.
func (c Config) Validate() error {
	if _, err := c.ScanTimeout(); err != nil {
		return err
	}
	if _, err := c.EnrichTimeout(); err != nil {
		return err
	}
	if _, err := icmp.ParseChecksumMode(c.Scan.Checksum); err != nil {
		return err
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative, got %d", c.Scan.Workers)
	}
	if c.Scan.EchoID < 0 || c.Scan.EchoID > 0xffff {
		return fmt.Errorf("scan.echo_id %d out of range", c.Scan.EchoID)
	}
	return nil
}

// ScanTimeout parses scan.timeout. An empty value means no timeout.
func (c Config) ScanTimeout() (time.Duration, error) {
	return parseDuration("scan.timeout", c.Scan.Timeout)
}

// EnrichTimeout parses enrich.timeout. An empty value means the default.
func (c Config) EnrichTimeout() (time.Duration, error) {
	return parseDuration("enrich.timeout", c.Enrich.Timeout)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, s)
	}
	return d, nil
}

// ScanOptions converts the scan section to scanner options.
func (c Config) ScanOptions() (netscout.Options, error) {
	opts := netscout.DefaultOptions()
	timeout, err := c.ScanTimeout()
	if err != nil {
		return opts, err
	}
	mode, err := icmp.ParseChecksumMode(c.Scan.Checksum)
	if err != nil {
		return opts, err
	}
	opts.Timeout = timeout
	if c.Scan.Workers > 0 {
		opts.Workers = c.Scan.Workers
	}
	opts.Correlate = c.Scan.Correlate
	opts.Checksum = mode
	opts.EchoID = c.Scan.EchoID
	opts.Interfaces = c.Scan.Interfaces
	opts.Exclude = c.Scan.Exclude
	return opts, nil
}

// EnrichOptions converts the enrich section to enrichment options.
func (c Config) EnrichOptions() (netscout.EnrichOptions, error) {
	opts := netscout.DefaultEnrichOptions()
	timeout, err := c.EnrichTimeout()
	if err != nil {
		return opts, err
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	if c.Enrich.Workers > 0 {
		opts.Workers = c.Enrich.Workers
	}
	opts.EnableARP = c.Enrich.ARP
	opts.EnableVendor = c.Enrich.Vendor
	opts.EnableDNS = c.Enrich.DNS
	opts.DNSServers = c.Enrich.DNSServers
	opts.OUIPath = c.Enrich.OUIFile
	return opts, nil
}
