// Package config provides YAML configuration for the mock engine: server
// settings, the OpenAPI document to derive resources from, inline resource
// definitions with seed data, event delivery tuning and logging.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tmfmock/tmfmockd/pkg/schema"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrEmptyFile    = errors.New("configuration file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

// Config is the root configuration document.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Spec      string           `yaml:"spec,omitempty"`
	Resources []ResourceConfig `yaml:"resources,omitempty"`
	Hub       HubConfig        `yaml:"hub"`
	Upstream  string           `yaml:"upstream,omitempty"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port"`
	// DelayMs adds artificial latency to every response.
	DelayMs int `yaml:"delayMs,omitempty"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Delay returns the configured artificial latency.
func (s ServerConfig) Delay() time.Duration {
	return time.Duration(s.DelayMs) * time.Millisecond
}

// ResourceConfig defines one resource type inline, without an OpenAPI
// document. Field values name semantic kinds: string, number, boolean,
// object, list. An empty field set makes the resource open (any fields
// accepted).
type ResourceConfig struct {
	Name     string            `yaml:"name"`
	BasePath string            `yaml:"basePath,omitempty"`
	IDField  string            `yaml:"idField,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	Required []string          `yaml:"required,omitempty"`
	Seed     []map[string]any  `yaml:"seed,omitempty"`
}

// HubConfig tunes event delivery.
type HubConfig struct {
	QueueSize         int `yaml:"queueSize,omitempty"`
	DeliveryTimeoutMs int `yaml:"deliveryTimeoutMs,omitempty"`
}

// DeliveryTimeout returns the per-callback POST timeout.
func (h HubConfig) DeliveryTimeout() time.Duration {
	return time.Duration(h.DeliveryTimeoutMs) * time.Millisecond
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Hub.QueueSize == 0 {
		c.Hub.QueueSize = 64
	}
	if c.Hub.DeliveryTimeoutMs == 0 {
		c.Hub.DeliveryTimeoutMs = 5000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Load reads, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.DelayMs < 0 {
		return errors.New("server.delayMs must not be negative")
	}
	if c.Hub.QueueSize < 1 {
		return errors.New("hub.queueSize must be positive")
	}
	if c.Upstream != "" {
		u, err := url.Parse(c.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("upstream %q is not an absolute URL", c.Upstream)
		}
	}

	seen := make(map[string]bool, len(c.Resources))
	for i, rc := range c.Resources {
		if rc.Name == "" {
			return fmt.Errorf("resources[%d]: name is required", i)
		}
		if seen[rc.Name] {
			return fmt.Errorf("resources[%d]: duplicate name %q", i, rc.Name)
		}
		seen[rc.Name] = true

		for field, kind := range rc.Fields {
			if _, ok := schema.ParseFieldKind(kind); !ok {
				return fmt.Errorf("resources[%d]: field %q has unknown kind %q", i, field, kind)
			}
		}
	}

	return nil
}

// BuildRegistry derives the resource type catalog from the configuration:
// OpenAPI-derived types first (when spec is set), then inline resources.
// Name collisions surface as DuplicateResourceTypeError.
func (c *Config) BuildRegistry() (*schema.Registry, error) {
	reg := schema.NewRegistry()

	if c.Spec != "" {
		doc, err := schema.LoadSpec(c.Spec)
		if err != nil {
			return nil, fmt.Errorf("loading spec %q: %w", c.Spec, err)
		}
		types, err := schema.FromOpenAPI(doc)
		if err != nil {
			return nil, fmt.Errorf("deriving resources from %q: %w", c.Spec, err)
		}
		for _, rt := range types {
			if err := reg.Register(rt); err != nil {
				return nil, err
			}
		}
	}

	for _, rc := range c.Resources {
		rt, err := rc.toResourceType()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rt); err != nil {
			return nil, err
		}
	}

	if reg.Len() == 0 {
		return nil, errors.New("no resources configured: set spec or resources")
	}
	return reg, nil
}

func (rc ResourceConfig) toResourceType() (*schema.ResourceType, error) {
	rt := &schema.ResourceType{
		Name:     rc.Name,
		BasePath: rc.BasePath,
		IDField:  rc.IDField,
		Required: rc.Required,
		SeedData: rc.Seed,
	}
	if len(rc.Fields) > 0 {
		rt.Fields = make(map[string]schema.FieldKind, len(rc.Fields))
		for field, kindName := range rc.Fields {
			kind, ok := schema.ParseFieldKind(kindName)
			if !ok {
				return nil, fmt.Errorf("resource %q field %q has unknown kind %q", rc.Name, field, kindName)
			}
			rt.Fields[field] = kind
		}
	}
	return rt, nil
}
