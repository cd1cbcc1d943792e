/*
mirror.go SCADA mirror. Each poll reads field coils into the closed state of the named
components, then writes the energized state of other named components and selected diagram
metrics back to the device.
*/

package modbuscomm

import (
	"fmt"
	"time"

	"github.com/goburrow/modbus"
	"github.com/google/uuid"
	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"go.uber.org/zap"
)

// Config of the Modbus TCP mirror. Timeout and PollRate are in milliseconds.
type Config struct {
	Enabled      bool       `json:"Enabled" yaml:"enabled"`
	Address      string     `json:"Address" yaml:"address"`
	SlaveID      byte       `json:"SlaveID" yaml:"slaveID"`
	Timeout      int        `json:"Timeout" yaml:"timeout"`
	PollRate     int        `json:"PollRate" yaml:"pollRate"`
	EnableLogger bool       `json:"EnableLogger" yaml:"enableLogger"`
	Inputs       []Coil     `json:"Inputs" yaml:"inputs"`
	Outputs      []Coil     `json:"Outputs" yaml:"outputs"`
	Registers    []Register `json:"Registers" yaml:"registers"`
}

// Target is the editor surface the mirror drives
type Target interface {
	Status() editor.Status
	Lookup(name string) []uuid.UUID
	SetState(id uuid.UUID, active bool) (editor.Result, error)
}

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// Mirror continuously polls a Modbus device against the diagram
type Mirror struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
	target  Target
	config  Config
	stop    chan bool
	log     *zap.SugaredLogger
}

// NewMirror is a factory for the Mirror struct
func NewMirror(cfg Config, target Target) *Mirror {
	log := logger.For(logger.Modbus)
	handler := modbus.NewTCPClientHandler(cfg.Address)
	handler.Timeout = time.Millisecond * time.Duration(cfg.Timeout)
	handler.SlaveId = cfg.SlaveID
	if cfg.EnableLogger {
		handler.Logger = zap.NewStdLog(log.Desugar())
	}
	return &Mirror{
		handler: handler,
		client:  modbus.NewClient(handler),
		target:  target,
		config:  cfg,
		stop:    make(chan bool, 1),
		log:     log,
	}
}

// Stop ends Process
func (m *Mirror) Stop() {
	m.stop <- true
}

// Process polls at the configured rate until Stop is called.
func (m *Mirror) Process() {
	m.log.Info("Process Started")
	if err := m.handler.Connect(); err != nil {
		m.log.Errorf("unable to connect to %v: %v", m.config.Address, err)
	}
	defer m.handler.Close()

	rate := m.config.PollRate
	if rate <= 0 {
		rate = 1000
	}
	poll := time.NewTicker(time.Duration(rate) * time.Millisecond)
	defer poll.Stop()
loop:
	for {
		select {
		case <-poll.C:
			if err := m.Poll(); err != nil {
				m.log.Warnf("poll: %v", err)
			}
		case <-m.stop:
			break loop
		}
	}
	m.log.Info("Process Shutdown")
}

// Poll runs one read and write cycle. Every mapping is attempted; the last error is returned.
func (m *Mirror) Poll() error {
	var err error
	if readErr := m.readInputs(); readErr != nil {
		err = readErr
	}
	status := m.target.Status()
	if writeErr := m.writeOutputs(status); writeErr != nil {
		err = writeErr
	}
	if writeErr := m.writeRegisters(status); writeErr != nil {
		err = writeErr
	}
	return err
}

func (m *Mirror) readInputs() error {
	var err error
	for _, coil := range m.config.Inputs {
		resp, readErr := m.client.ReadCoils(coil.Address, 1)
		if readErr != nil {
			err = fmt.Errorf("read coil %d: %w", coil.Address, readErr)
			continue
		}
		if len(resp) == 0 {
			continue
		}
		closed := resp[0]&0x01 == 1
		for _, id := range m.target.Lookup(coil.Name) {
			r, setErr := m.target.SetState(id, closed)
			if setErr != nil {
				err = setErr
				continue
			}
			if r.Committed {
				m.log.Infof("%v set %v from coil %d", coil.Name, closed, coil.Address)
			}
		}
	}
	return err
}

func (m *Mirror) writeOutputs(status editor.Status) error {
	energized := make(map[string]bool)
	for _, c := range status.Components {
		if c.Name != "" {
			energized[c.Name] = energized[c.Name] || c.Energized
		}
	}

	var err error
	for _, coil := range m.config.Outputs {
		value := coilOff
		if energized[coil.Name] {
			value = coilOn
		}
		if _, writeErr := m.client.WriteSingleCoil(coil.Address, value); writeErr != nil {
			err = fmt.Errorf("write coil %d: %w", coil.Address, writeErr)
		}
	}
	return err
}

func (m *Mirror) writeRegisters(status editor.Status) error {
	var err error
	for _, register := range m.config.Registers {
		val, ok := metric(status, register.Metric)
		if !ok {
			err = fmt.Errorf("unknown metric %q", register.Metric)
			continue
		}
		bytes := encode(val, register)
		if _, writeErr := m.client.WriteMultipleRegisters(register.Address, sizeOf(register.DataType), bytes); writeErr != nil {
			err = fmt.Errorf("write register %d: %w", register.Address, writeErr)
		}
	}
	return err
}

func metric(status editor.Status, name Metric) (float64, bool) {
	switch name {
	case MetricEnergized:
		return float64(status.Energized), true
	case MetricComponents:
		return float64(len(status.Components)), true
	case MetricUndo:
		return float64(status.Undo), true
	}
	return 0, false
}
