package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "MONETA_"

type Application struct {
	Api     Api     `koanf:"api"`
	Session Session `koanf:"session"`
	Log     Log     `koanf:"log"`
}

type Api struct {
	BaseUrl string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
}

type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

type Session struct {
	Store StoreKind `koanf:"store"`
	// Path of the token store. For the file store it is a JSON file, for
	// sqlite a database file. Empty means the user config directory.
	Path        string        `koanf:"path"`
	IdleTimeout time.Duration `koanf:"idletimeout"`
}

type Log struct {
	Level string `koanf:"level"`
}

func Defaults() Application {
	return Application{
		Api: Api{
			BaseUrl: "http://localhost:8080/api",
			Timeout: 30 * time.Second,
		},
		Session: Session{
			Store:       StoreFile,
			IdleTimeout: 30 * time.Minute,
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file at path,
// an optional .env file and MONETA_* environment variables, in that order of
// increasing precedence.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("unable to load .env file: %v", err)
	}

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if os.IsNotExist(err) {
				log.Infof("Config file not found at %s, using defaults and environment variables", path)
			} else {
				log.Errorf("error loading config from YAML: %v", err)
				return Application{}, err
			}
		} else {
			log.Infof("Loaded configuration from file: %s", path)
		}
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if err := app.Validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a Application) Validate() error {
	var problems []string
	if a.Api.BaseUrl == "" {
		problems = append(problems, "api.baseurl must not be empty")
	}
	if a.Api.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}
	if a.Session.IdleTimeout <= 0 {
		problems = append(problems, "session.idletimeout must be positive")
	}
	switch a.Session.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("session.store %q must be one of file, sqlite, memory", a.Session.Store))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SessionPath returns the configured store path, falling back to a file
// under the user config directory.
func (a Application) SessionPath() (string, error) {
	if a.Session.Path != "" {
		return a.Session.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to resolve user config dir: %w", err)
	}
	name := "session.json"
	if a.Session.Store == StoreSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, "moneta", name), nil
}
