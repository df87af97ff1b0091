package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/telekom/k8s-leaselock/pkg/naming"
)

// Lease store backends.
const (
	BackendKubernetes = "kubernetes"
	BackendMemory     = "memory"
)

type ServerConfig struct {
	// ListenAddress is the address the HTTP API binds to
	ListenAddress string `yaml:"listenAddress"`

	// TLSCertFile and TLSKeyFile enable TLS when both are set
	TLSCertFile string `yaml:"tlsCertFile"`
	TLSKeyFile  string `yaml:"tlsKeyFile"`
}

type ElectionConfig struct {
	// LeaseName is the name of the Lease object; it is sanitized to a valid
	// RFC1123 label by Defaults
	LeaseName string `yaml:"leaseName"`

	// LeaseNamespace is where the Lease lives; empty means the pod's own
	// namespace (resolved at startup)
	LeaseNamespace string `yaml:"leaseNamespace"`

	// Timing parameters; renewDeadlineSeconds must stay below
	// leaseDurationSeconds
	LeaseDurationSeconds int `yaml:"leaseDurationSeconds"`
	RenewDeadlineSeconds int `yaml:"renewDeadlineSeconds"`
	RetryPeriodSeconds   int `yaml:"retryPeriodSeconds"`

	// MaxRetries is how many consecutive loop errors are tolerated before
	// leadership is given up
	MaxRetries int `yaml:"maxRetries"`

	// Identity overrides the derived pod identity; normally left empty
	Identity string `yaml:"identity"`

	// Backend selects the lease store: "kubernetes" (default) or "memory"
	// for cluster-less development
	Backend string `yaml:"backend"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"samplingRate"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Election  ElectionConfig  `yaml:"election"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Load reads the YAML config from the given path, or ./config.yaml if none
// is provided.
func Load(configPath ...string) (Config, error) {
	var path string

	// Use provided path or fall back to default
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	} else {
		path = "./config.yaml"
	}

	var config Config

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open leaselock config file %s: %v", path, err)
	}

	err = yaml.Unmarshal(content, &config)
	if err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %v", path, err)
	}
	return config, nil
}

// Defaults fills unset fields with the standard values. Election timings
// default to the Kubernetes client defaults (15s lease, 10s renew deadline,
// 2s retry period, 5 retries).
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Election.LeaseName == "" {
		c.Election.LeaseName = "leaselock"
	}
	if !naming.IsValidLabel(c.Election.LeaseName) {
		c.Election.LeaseName = naming.ToRFC1123Label(c.Election.LeaseName)
	}
	if c.Election.LeaseDurationSeconds == 0 {
		c.Election.LeaseDurationSeconds = 15
	}
	if c.Election.RenewDeadlineSeconds == 0 {
		c.Election.RenewDeadlineSeconds = 10
	}
	if c.Election.RetryPeriodSeconds == 0 {
		c.Election.RetryPeriodSeconds = 2
	}
	if c.Election.MaxRetries == 0 {
		c.Election.MaxRetries = 5
	}
	if c.Election.Backend == "" {
		c.Election.Backend = BackendKubernetes
	}
	if c.Telemetry.SamplingRate == 0 {
		c.Telemetry.SamplingRate = 1.0
	}
}
