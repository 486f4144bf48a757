// Package config assembles the runtime configuration for the monitor:
// the cluster inventory, polling interval, health thresholds, and the
// reporting/alerting knobs. Values come from the environment (the names the
// fleet's existing deployments already export), an optional viper config
// file, and an optional YAML cluster inventory file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Cluster identifies one monitored cluster and how to reach it.
// Immutable after load.
type Cluster struct {
	Name   string `yaml:"name" json:"name"`
	APIURL string `yaml:"api_url" json:"api_url"`
	Token  string `yaml:"token" json:"-"`
}

// Config holds everything the monitoring engine needs for one process run.
type Config struct {
	Clusters []Cluster

	Interval       time.Duration
	MaxConcurrent  int
	RequestTimeout time.Duration
	InsecureTLS    bool

	// Critical thresholds (percent) and the lower recovery thresholds that
	// close the hysteresis band for repeat alerting.
	CPUCritical    float64
	CPURecovery    float64
	MemoryCritical float64
	MemoryRecovery float64
	DiskCritical   float64
	DiskRecovery   float64

	ReportsDir    string
	MaxReportAge  time.Duration
	BackupReports bool

	WebhookURL            string
	SmartAlerts           bool
	RecoveryNotifications bool
}

// Environment keys. These match what existing deployments of the monitor
// already export, so a drop-in replacement picks them up unchanged.
const (
	envClusterNames   = "cluster_names"
	envAPIURLs        = "openshift_api_urls"
	envTokens         = "openshift_tokens"
	envClustersFile   = "clusters_file"
	envInterval       = "monitoring_interval"
	envCPUCritical    = "cpu_critical_threshold"
	envCPURecovery    = "cpu_recovery_threshold"
	envMemCritical    = "memory_critical_threshold"
	envMemRecovery    = "memory_recovery_threshold"
	envDiskCritical   = "disk_critical_threshold"
	envDiskRecovery   = "disk_recovery_threshold"
	envReportsDir     = "reports_directory"
	envMaxReportAge   = "max_reports_age_days"
	envBackupReports  = "backup_reports"
	envWebhookURL     = "webhook_url"
	envSmartAlerts    = "smart_alerts"
	envRecoveryNotifs = "recovery_notifications"
	envMaxConcurrent  = "max_concurrent_collections"
	envRequestTimeout = "api_request_timeout"
	envInsecureTLS    = "tls_insecure_skip_verify"
)

func setDefaults() {
	viper.SetDefault(envInterval, 300)
	viper.SetDefault(envCPUCritical, 85.0)
	viper.SetDefault(envCPURecovery, 70.0)
	viper.SetDefault(envMemCritical, 90.0)
	viper.SetDefault(envMemRecovery, 80.0)
	viper.SetDefault(envDiskCritical, 85.0)
	viper.SetDefault(envDiskRecovery, 75.0)
	viper.SetDefault(envReportsDir, "./reports")
	viper.SetDefault(envMaxReportAge, 3)
	viper.SetDefault(envBackupReports, true)
	viper.SetDefault(envSmartAlerts, true)
	viper.SetDefault(envRecoveryNotifs, true)
	viper.SetDefault(envMaxConcurrent, 4)
	viper.SetDefault(envRequestTimeout, 30)
	// The fleet's API endpoints run with self-signed certs; existing
	// deployments skip verification, so that stays the default.
	viper.SetDefault(envInsecureTLS, true)
}

// Load builds the configuration from viper state (environment plus any
// config file the CLI layer already read in).
func Load() (*Config, error) {
	viper.AutomaticEnv()
	setDefaults()

	cfg := &Config{
		Interval:              time.Duration(viper.GetInt(envInterval)) * time.Second,
		MaxConcurrent:         viper.GetInt(envMaxConcurrent),
		RequestTimeout:        time.Duration(viper.GetInt(envRequestTimeout)) * time.Second,
		InsecureTLS:           viper.GetBool(envInsecureTLS),
		CPUCritical:           viper.GetFloat64(envCPUCritical),
		CPURecovery:           viper.GetFloat64(envCPURecovery),
		MemoryCritical:        viper.GetFloat64(envMemCritical),
		MemoryRecovery:        viper.GetFloat64(envMemRecovery),
		DiskCritical:          viper.GetFloat64(envDiskCritical),
		DiskRecovery:          viper.GetFloat64(envDiskRecovery),
		ReportsDir:            viper.GetString(envReportsDir),
		MaxReportAge:          time.Duration(viper.GetInt(envMaxReportAge)) * 24 * time.Hour,
		BackupReports:         viper.GetBool(envBackupReports),
		WebhookURL:            viper.GetString(envWebhookURL),
		SmartAlerts:           viper.GetBool(envSmartAlerts),
		RecoveryNotifications: viper.GetBool(envRecoveryNotifs),
	}

	clusters, err := loadClusters()
	if err != nil {
		return nil, err
	}
	cfg.Clusters = clusters

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadClusters prefers an explicit inventory file and falls back to the
// comma-separated environment triplet.
func loadClusters() ([]Cluster, error) {
	if path := viper.GetString(envClustersFile); path != "" {
		return LoadClustersFile(path)
	}
	return clustersFromEnv(), nil
}

// LoadClustersFile reads a YAML cluster inventory:
//
//	clusters:
//	  - name: prod-eu
//	    api_url: https://api.prod-eu.example.com:6443
//	    token: sha256~...
func LoadClustersFile(path string) ([]Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clusters file %s: %w", path, err)
	}

	var doc struct {
		Clusters []Cluster `yaml:"clusters"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse clusters file %s: %w", path, err)
	}

	var out []Cluster
	for _, c := range doc.Clusters {
		c.Name = strings.TrimSpace(c.Name)
		c.APIURL = strings.TrimSpace(c.APIURL)
		c.Token = strings.TrimSpace(c.Token)
		if c.Name == "" || c.APIURL == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// clustersFromEnv zips CLUSTER_NAMES, OPENSHIFT_API_URLS and OPENSHIFT_TOKENS
// (comma-separated, index-aligned). Entries missing a name or URL are skipped.
func clustersFromEnv() []Cluster {
	names := strings.Split(viper.GetString(envClusterNames), ",")
	urls := strings.Split(viper.GetString(envAPIURLs), ",")
	tokens := strings.Split(viper.GetString(envTokens), ",")

	var out []Cluster
	for i, name := range names {
		if i >= len(urls) || i >= len(tokens) {
			break
		}
		c := Cluster{
			Name:   strings.TrimSpace(name),
			APIURL: strings.TrimSpace(urls[i]),
			Token:  strings.TrimSpace(tokens[i]),
		}
		if c.Name == "" || c.APIURL == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Validate checks invariants the engine depends on.
func (c *Config) Validate() error {
	if len(c.Clusters) == 0 {
		return fmt.Errorf("no clusters configured: set CLUSTERS_FILE or CLUSTER_NAMES/OPENSHIFT_API_URLS/OPENSHIFT_TOKENS")
	}
	seen := make(map[string]bool, len(c.Clusters))
	for _, cl := range c.Clusters {
		if seen[cl.Name] {
			return fmt.Errorf("duplicate cluster name %q", cl.Name)
		}
		seen[cl.Name] = true
	}
	if c.Interval <= 0 {
		return fmt.Errorf("monitoring interval must be positive, got %s", c.Interval)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent collections must be at least 1, got %d", c.MaxConcurrent)
	}
	for _, t := range []struct {
		name               string
		critical, recovery float64
	}{
		{"cpu", c.CPUCritical, c.CPURecovery},
		{"memory", c.MemoryCritical, c.MemoryRecovery},
		{"disk", c.DiskCritical, c.DiskRecovery},
	} {
		if t.critical < 0 || t.critical > 100 {
			return fmt.Errorf("%s critical threshold out of range [0,100]: %v", t.name, t.critical)
		}
		if t.recovery >= t.critical {
			return fmt.Errorf("%s recovery threshold %v must be below critical %v", t.name, t.recovery, t.critical)
		}
	}
	return nil
}
