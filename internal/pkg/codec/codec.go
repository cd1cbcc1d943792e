/*
codec.go Document encodings of a grid memento. JSON and YAML are the file formats; BSON is
the MongoDB representation and may also be written to disk.
*/

package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohowland/gridflow/internal/pkg/grid"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported document format
var ErrUnknownFormat = errors.New("unknown document format")

// Format of an encoded document
type Format string

// Formats
const (
	JSON Format = "json"
	YAML Format = "yaml"
	BSON Format = "bson"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".bson":
		return BSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Encode serializes m in format f
func Encode(f Format, m grid.GridMemento) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(m, "", "  ")
	case YAML:
		return yaml.Marshal(m)
	case BSON:
		return bson.Marshal(m)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Decode parses a document in format f
func Decode(f Format, data []byte) (grid.GridMemento, error) {
	m := grid.GridMemento{}
	var err error
	switch f {
	case JSON:
		err = json.Unmarshal(data, &m)
	case YAML:
		err = yaml.Unmarshal(data, &m)
	case BSON:
		err = bson.Unmarshal(data, &m)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return grid.GridMemento{}, err
	}
	return m, nil
}

// ReadFile loads the document at path
func ReadFile(path string) (grid.GridMemento, error) {
	f, err := FormatOf(path)
	if err != nil {
		return grid.GridMemento{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return grid.GridMemento{}, err
	}
	m, err := Decode(f, data)
	if err != nil {
		return grid.GridMemento{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

// WriteFile stores m at path
func WriteFile(path string, m grid.GridMemento) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(f, m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
