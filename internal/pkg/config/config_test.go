package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ohowland/gridflow/internal/pkg/comm/modbuscomm"
	"github.com/ohowland/gridflow/internal/pkg/database/sqldb"
	"gotest.tools/v3/assert"
)

func writeFile(t *testing.T, name, body string) string {
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gridflow.yaml", `
logger:
  level: DEBUG
editor:
  historyLimit: 10
nats:
  enabled: true
sql:
  driver: postgres
  port: 5432
modbus:
  enabled: true
  inputs:
    - name: DD-1
      address: 4
`)
	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Logger.Level, "DEBUG")
	assert.Equal(t, cfg.Editor.HistoryLimit, 10)
	assert.Assert(t, cfg.NATS.Enabled)
	assert.Equal(t, cfg.NATS.Subject, "gridflow.status")
	assert.Equal(t, cfg.SQL.Driver, sqldb.Postgres)
	assert.Equal(t, cfg.SQL.Port, 5432)
	assert.Equal(t, cfg.SQL.Host, "127.0.0.1")
	assert.DeepEqual(t, cfg.Modbus.Inputs, []modbuscomm.Coil{{Name: "DD-1", Address: 4}})
	assert.Equal(t, cfg.Webservice.Addr, ":8080")
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "gridflow.json", `{"Webservice": {"Addr": ":9090"}, "Document": "depot.yaml"}`)
	cfg, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Webservice.Addr, ":9090")
	assert.Equal(t, cfg.Document, "depot.yaml")
	assert.Equal(t, cfg.Editor.HistoryLimit, 100)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "gridflow.toml", "a = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeFile(t, "gridflow.json", "{"))
	assert.ErrorContains(t, err, "parse config")
}

func TestDefaultIsACopy(t *testing.T) {
	a := Default()
	a.Modbus.Outputs = append(a.Modbus.Outputs, modbuscomm.Coil{Name: "x"})
	a.Editor.HistoryLimit = 1

	b := Default()
	assert.Equal(t, len(b.Modbus.Outputs), 0)
	assert.Equal(t, b.Editor.HistoryLimit, 100)
}
