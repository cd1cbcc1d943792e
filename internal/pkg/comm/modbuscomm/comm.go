package modbuscomm

import (
	"encoding/binary"
	"math"
)

// DataType defines the type of Modbus register for encoding
type DataType string

// Constants of DataType
const (
	u16 DataType = "u16"
	u32 DataType = "u32"
	u64 DataType = "u64"
	i16 DataType = "i16"
	i32 DataType = "i32"
	i64 DataType = "i64"
	f32 DataType = "f32"
	f64 DataType = "f64"
)

// Endian byte order of Modbus register for encoding
type Endian string

// Constants of Endian
const (
	littleEndian Endian = "little"
	bigEndian    Endian = "big"
)

// Metric names a diagram figure that can be mirrored into holding registers
type Metric string

// Metrics
const (
	MetricEnergized  Metric = "energized"
	MetricComponents Metric = "components"
	MetricUndo       Metric = "undo"
)

// Register maps a metric onto holding registers
type Register struct {
	Metric     Metric   `json:"Metric" yaml:"metric"`
	Address    uint16   `json:"Address" yaml:"address"`
	DataType   DataType `json:"DataType" yaml:"dataType"`
	Endianness Endian   `json:"Endianness" yaml:"endianness"`
}

// Coil maps the components named Name onto one coil
type Coil struct {
	Name    string `json:"Name" yaml:"name"`
	Address uint16 `json:"Address" yaml:"address"`
}

// encode converts a float64 into register bytes
func encode(val float64, register Register) []byte {
	var bytes []byte
	endian := getByteOrder(register.Endianness)
	switch register.DataType {
	case u16, i16:
		bytes = make([]byte, 2*sizeOf(u16))
		endian.PutUint16(bytes, uint16(val))
	case u32, i32:
		bytes = make([]byte, 2*sizeOf(u32))
		endian.PutUint32(bytes, uint32(val))
	case f32:
		bytes = make([]byte, 2*sizeOf(f32))
		endian.PutUint32(bytes, math.Float32bits(float32(val)))
	case u64, i64:
		bytes = make([]byte, 2*sizeOf(u64))
		endian.PutUint64(bytes, uint64(val))
	case f64:
		bytes = make([]byte, 2*sizeOf(f64))
		endian.PutUint64(bytes, math.Float64bits(val))
	}
	return bytes
}

// getByteOrder returns the binary.ByteOrder for the register
func getByteOrder(e Endian) binary.ByteOrder {
	if e == littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// sizeOf returns the number of 16 bit registers for the datatype
func sizeOf(t DataType) uint16 {
	switch t {
	case u16, i16:
		return 1
	case u32, i32, f32:
		return 2
	case u64, i64, f64:
		return 4
	}
	return 0
}
