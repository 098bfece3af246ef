// Package profile loads the portfolio profile and serves the live snapshot.
package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

//go:embed default.yaml
var defaultProfile []byte

// YAMLLoader implements ports.ProfileLoader for YAML profile files.
type YAMLLoader struct{}

// NewYAMLLoader creates a new profile loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// Load reads the profile at path.
func (l *YAMLLoader) Load(path string) (entities.Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return entities.Profile{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return entities.Profile{}, err
	}

	p, err := Parse(data)
	if err != nil {
		return entities.Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile. Unknown keys are rejected so typos surface
// instead of silently dropping data.
func Parse(data []byte) (entities.Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p entities.Profile
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return entities.Profile{}, errors.New("profile is empty")
		}
		return entities.Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	return p, nil
}

// Default returns the profile compiled into the binary.
func Default() entities.Profile {
	p, err := Parse(defaultProfile)
	if err != nil {
		panic("profile: embedded default is invalid: " + err.Error())
	}
	return p
}
