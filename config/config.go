package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
	Geocode GeocodeConfig `yaml:"geocode"`
	Fix     FixConfig     `yaml:"fix"`
	PDF     PDFConfig     `yaml:"pdf"`
	Storage StorageConfig `yaml:"storage"`
	Minio   MinioConfig   `yaml:"minio"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig drives the offline asset gateway.
type CacheConfig struct {
	Name           string   `yaml:"name"`     // version-qualified cache name, e.g. task-form-v2.0
	Dir            string   `yaml:"dir"`      // root directory for versioned cache stores
	UpstreamURL    string   `yaml:"upstream"` // asset origin the gateway fronts
	IndexPath      string   `yaml:"index_path"`
	Assets         []string `yaml:"assets"` // URLs to precache, relative to upstream or absolute
	StrictPrecache bool     `yaml:"strict_precache"`
	FetchLimit     int      `yaml:"fetch_limit"` // concurrent precache fetches
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type GeocodeConfig struct {
	SearchURL      string `yaml:"search_url"`
	ReverseURL     string `yaml:"reverse_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FixConfig bounds the best-fix sampling loop.
type FixConfig struct {
	MaxAccuracyM   float64 `yaml:"max_accuracy_m"`  // samples worse than this are ignored
	GoodAccuracyM  float64 `yaml:"good_accuracy_m"` // stop early once this is reached
	CeilingSeconds int     `yaml:"ceiling_seconds"`
}

type PDFConfig struct {
	PromptFilename bool `yaml:"prompt_filename"` // whether clients should show the rename dialog
}

type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	DrawingsFile string `yaml:"drawings_file"`
}

type MinioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Cache.Name == "" {
		cfg.Cache.Name = "task-form-v2.0"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "./data/cache"
	}
	if cfg.Cache.IndexPath == "" {
		cfg.Cache.IndexPath = "/index.html"
	}
	if cfg.Cache.FetchLimit == 0 {
		cfg.Cache.FetchLimit = 4
	}
	if cfg.Cache.TimeoutSeconds == 0 {
		cfg.Cache.TimeoutSeconds = 20
	}
	if cfg.Geocode.SearchURL == "" {
		cfg.Geocode.SearchURL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.Geocode.ReverseURL == "" {
		cfg.Geocode.ReverseURL = "https://nominatim.openstreetmap.org/reverse"
	}
	if cfg.Geocode.UserAgent == "" {
		cfg.Geocode.UserAgent = "taskform/1.0"
	}
	if cfg.Geocode.TimeoutSeconds == 0 {
		cfg.Geocode.TimeoutSeconds = 15
	}
	if cfg.Fix.MaxAccuracyM == 0 {
		cfg.Fix.MaxAccuracyM = 200
	}
	if cfg.Fix.GoodAccuracyM == 0 {
		cfg.Fix.GoodAccuracyM = 20
	}
	if cfg.Fix.CeilingSeconds == 0 {
		cfg.Fix.CeilingSeconds = 12
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.DrawingsFile == "" {
		cfg.Storage.DrawingsFile = "drawings.json"
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}

	GlobalConfig = &cfg
	return &cfg, nil
}
