/*
config.go Application configuration. One file, YAML or JSON, carries a section per process;
every section is owned by the package that consumes it. Missing keys keep their defaults.
*/

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohowland/gridflow/internal/pkg/comm/modbuscomm"
	"github.com/ohowland/gridflow/internal/pkg/database/mongodb"
	"github.com/ohowland/gridflow/internal/pkg/database/sqldb"
	"github.com/ohowland/gridflow/internal/pkg/datastreams/mqtt"
	"github.com/ohowland/gridflow/internal/pkg/datastreams/natshandler"
	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/hmi"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/web"
	"github.com/ohowland/gridflow/internal/pkg/webservice"
	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration
type Config struct {
	Logger     logger.Config      `json:"Logger" yaml:"logger"`
	Editor     editor.Config      `json:"Editor" yaml:"editor"`
	Document   string             `json:"Document" yaml:"document"`
	Webservice webservice.Config  `json:"Webservice" yaml:"webservice"`
	NATS       natshandler.Config `json:"NATS" yaml:"nats"`
	MQTT       mqtt.Config        `json:"MQTT" yaml:"mqtt"`
	Mongo      mongodb.Config     `json:"Mongo" yaml:"mongo"`
	SQL        sqldb.Config       `json:"SQL" yaml:"sql"`
	Modbus     modbuscomm.Config  `json:"Modbus" yaml:"modbus"`
	Webhook    web.Config         `json:"Webhook" yaml:"webhook"`
	HMI        hmi.Config         `json:"HMI" yaml:"hmi"`
}

var defaults = Config{
	Logger: logger.Config{Level: "INFO", Format: logger.FormatConsole},
	Editor: editor.Config{HistoryLimit: 100},
	Webservice: webservice.Config{
		Enabled: true,
		Addr:    ":8080",
	},
	NATS: natshandler.Config{
		URL:     "nats://127.0.0.1:4222",
		Subject: "gridflow.status",
	},
	MQTT: mqtt.Config{
		Broker:   "tcp://127.0.0.1:1883",
		ClientID: "gridflow",
		Topic:    "gridflow/status",
	},
	Mongo: mongodb.Config{
		URI:        "mongodb://127.0.0.1:27017",
		Database:   "gridflow",
		Collection: "documents",
		Document:   "default",
	},
	SQL: sqldb.Config{
		Driver:   sqldb.MySQL,
		Host:     "127.0.0.1",
		Port:     3306,
		Database: "gridflow",
		Document: "default",
	},
	Modbus: modbuscomm.Config{
		Address:  "127.0.0.1:502",
		SlaveID:  1,
		Timeout:  1000,
		PollRate: 1000,
	},
	Webhook: web.Config{Timeout: 5000},
	HMI:     hmi.Config{Refresh: 500},
}

// Default returns a copy of the default configuration
func Default() Config {
	var c Config
	if err := deepcopy.Copy(&c, &defaults); err != nil {
		return defaults
	}
	return c
}

// Load reads the configuration at path over the defaults. The format follows the file
// extension: .yaml, .yml or .json.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, filepath.Ext(path), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext into cfg.
func Parse(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unsupported config format %q", ext)
}
