package course

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DefaultSegments число внутренних сегментов по умолчанию
const DefaultSegments = 5

const pcgStreamMixing uint64 = 0x9e3779b97f4a7c15

var (
	ErrNoKinds      = errors.New("course: no obstacle kinds configured")
	ErrTerminalKind = errors.New("course: start and end cannot be drawn as interior segments")
	ErrUnknownKind  = errors.New("course: kind has no catalog entry")
)

// Rand источник равномерных чисел в [0, 1)
type Rand interface {
	Float64() float64
}

// NewRand детерминированный генератор для seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStreamMixing))
}

// NewSessionRand генератор без воспроизводимости, новый на каждый вызов
func NewSessionRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generate строит трассу из count внутренних сегментов.
// Отрицательный count приводится к 0. Сначала выбираются типы всех
// внутренних сегментов, затем по порядку индексов параметры движения.
func Generate(count int, kinds []Kind, rng Rand) (*Layout, error) {
	if len(kinds) == 0 {
		return nil, ErrNoKinds
	}
	for _, kind := range kinds {
		if kind.IsTerminal() {
			return nil, fmt.Errorf("%w: %s", ErrTerminalKind, kind)
		}
		if _, ok := Lookup(kind); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}
	}
	if rng == nil {
		rng = NewSessionRand()
	}
	if count < 0 {
		count = 0
	}

	drawn := make([]Kind, count)
	for i := range drawn {
		idx := int(rng.Float64() * float64(len(kinds)))
		if idx >= len(kinds) {
			idx = len(kinds) - 1
		}
		drawn[i] = kinds[idx]
	}

	segments := make([]Segment, 0, count+2)
	segments = append(segments, Segment{Kind: KindStart, Index: 0, Position: PositionAt(0)})

	for i, kind := range drawn {
		segments = append(segments, Segment{
			Kind:     kind,
			Index:    i + 1,
			Position: PositionAt(i + 1),
		})
	}

	for i := 1; i <= count; i++ {
		entry, _ := Lookup(segments[i].Kind)
		if entry.Seed == nil {
			continue
		}
		seed := entry.Seed(rng)
		segments[i].Motion = &seed
	}

	segments = append(segments, Segment{Kind: KindEnd, Index: count + 1, Position: PositionAt(count + 1)})

	return &Layout{
		Segments: segments,
		Bounds:   NewBounds(count + 2),
	}, nil
}

// GenerateSeeded генерирует трассу из seed или, при seed == nil, из
// несидированного источника
func GenerateSeeded(count int, kinds []Kind, seed *uint64) (*Layout, error) {
	if seed == nil {
		return Generate(count, kinds, NewSessionRand())
	}

	layout, err := Generate(count, kinds, NewRand(*seed))
	if err != nil {
		return nil, err
	}
	s := *seed
	layout.Seed = &s
	return layout, nil
}
