package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = "quadsync.yaml"

type ProjectConfig struct {
	Project    string            `yaml:"project"`
	Version    int               `yaml:"version"`
	User       string            `yaml:"user"`
	REST       RESTConfig        `yaml:"rest"`
	Sync       SyncConfig        `yaml:"sync"`
	Fetch      FetchConfig       `yaml:"fetch"`
	Images     ImagesConfig      `yaml:"images"`
	Namespaces map[string]string `yaml:"namespaces"`
	Vocabulary Vocabulary        `yaml:"vocabulary"`
	Seed       SeedConfig        `yaml:"seed"`
	Store      StoreConfig       `yaml:"store"`
}

type RESTConfig struct {
	Protocol       string `yaml:"protocol"`
	Host           string `yaml:"host"`
	BasePath       string `yaml:"base_path"`
	ProjectPath    string `yaml:"project_path"`
	TextPath       string `yaml:"text_path"`
	ResourcePath   string `yaml:"resource_path"`
	AnnotationPath string `yaml:"annotation_path"`
	UserPath       string `yaml:"user_path"`
	CanvasPath     string `yaml:"canvas_path"`
	CSRFCookie     string `yaml:"csrf_cookie"`
	CSRFHeader     string `yaml:"csrf_header"`
	Format         string `yaml:"format"`
}

type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// Proxy is a URL template; "{url}" is replaced by the escaped target.
	Proxy       string   `yaml:"proxy"`
	LocalHost   string   `yaml:"local_host"`
	CORSDomains []string `yaml:"cors_domains"`
}

type ImagesConfig struct {
	Rewrites []Rewrite `yaml:"rewrites"`
}

type Rewrite struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type SeedConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type StoreConfig struct {
	DSN    string `yaml:"dsn"`
	Listen string `yaml:"listen"`
	CSRF   bool   `yaml:"csrf"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// Default returns a config for project with every optional key filled in.
func Default(project, host string) *ProjectConfig {
	cfg := &ProjectConfig{Project: project, Version: 1, REST: RESTConfig{Host: host}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *ProjectConfig) {
	cfg.REST = cfg.REST.WithDefaults()

	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 15 * time.Second
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	cfg.Vocabulary.applyDefaults()
}

// WithDefaults fills every empty path, CSRF name and format with its default.
func (r RESTConfig) WithDefaults() RESTConfig {
	setDefault(&r.Protocol, "http")
	setDefault(&r.BasePath, "store")
	setDefault(&r.ProjectPath, "projects")
	setDefault(&r.TextPath, "texts")
	setDefault(&r.ResourcePath, "resources")
	setDefault(&r.AnnotationPath, "annotations")
	setDefault(&r.UserPath, "users")
	setDefault(&r.CanvasPath, "canvases")
	setDefault(&r.CSRFCookie, "csrftoken")
	setDefault(&r.CSRFHeader, "X-CSRFToken")
	setDefault(&r.Format, "text/turtle")
	return r
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.REST.Host) == "" {
		return fmt.Errorf("rest host is required")
	}
	if cfg.REST.Protocol != "http" && cfg.REST.Protocol != "https" {
		return fmt.Errorf("unsupported rest protocol: %s", cfg.REST.Protocol)
	}
	if cfg.Sync.Interval < 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	if cfg.Sync.Concurrency < 0 {
		return fmt.Errorf("sync concurrency must be positive")
	}
	if cfg.Fetch.Proxy != "" && !strings.Contains(cfg.Fetch.Proxy, "{url}") {
		return fmt.Errorf("fetch proxy must contain {url}")
	}
	if cfg.User != "" {
		if _, err := url.Parse(cfg.User); err != nil {
			return fmt.Errorf("invalid user uri: %w", err)
		}
	}
	for i, rw := range cfg.Images.Rewrites {
		if rw.From == "" {
			return fmt.Errorf("image rewrite %d from is required", i)
		}
	}
	for prefix, uri := range cfg.Namespaces {
		if strings.TrimSpace(prefix) == "" || strings.TrimSpace(uri) == "" {
			return fmt.Errorf("namespace entries need a prefix and a uri")
		}
	}
	return validateVocabulary(&cfg.Vocabulary)
}
