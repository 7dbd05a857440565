// Package replay прогоняет записанный сценарий кадров через цикл симуляции
// без сети и таймера. Один и тот же сценарий дает одинаковый результат.
package replay

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/domain/input"
)

// DefaultDt длительность кадра, если сценарий ее не задает
const DefaultDt = 1.0 / 60

// Script сценарий прогона
type Script struct {
	Seed     *uint64  `yaml:"seed"`
	Segments int      `yaml:"segments"`
	Kinds    []string `yaml:"kinds"`
	Dt       float64  `yaml:"dt"`
	Frames   []Frame  `yaml:"frames"`
}

// Frame группа одинаковых кадров
type Frame struct {
	// Dt перекрывает Script.Dt, в том числе нулем
	Dt     *float64       `yaml:"dt"`
	Repeat int            `yaml:"repeat"`
	Keys   input.Snapshot `yaml:"keys"`

	// Regenerate запрашивает новую трассу перед первым кадром группы
	Regenerate *Regenerate `yaml:"regenerate"`
}

type Regenerate struct {
	Seed *uint64 `yaml:"seed"`
}

// Parse читает сценарий из YAML
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding replay script: %w", err)
	}
	if s.Dt == 0 {
		s.Dt = DefaultDt
	}
	if s.Dt < 0 {
		return nil, fmt.Errorf("replay script dt must be positive, got %v", s.Dt)
	}
	if _, err := s.ParsedKinds(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile читает сценарий из файла
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// ParsedKinds типы препятствий сценария, по умолчанию все
func (s *Script) ParsedKinds() ([]course.Kind, error) {
	if len(s.Kinds) == 0 {
		return course.DefaultKinds(), nil
	}
	return course.ParseKinds(s.Kinds)
}

// FrameDt длительность кадров группы
func (s *Script) FrameDt(f Frame) float64 {
	if f.Dt != nil {
		return *f.Dt
	}
	return s.Dt
}

// TotalFrames число кадров с учетом повторов
func (s *Script) TotalFrames() int {
	n := 0
	for _, f := range s.Frames {
		n += max(f.Repeat, 1)
	}
	return n
}
