package course

import (
	"fmt"
	"strings"
)

// Kind тип сегмента трассы. Набор закрыт: новый тип требует записи в каталоге.
type Kind int

const (
	KindStart Kind = iota
	KindEnd
	KindSpinner
	KindLimbo
	KindAxe
)

var kindNames = map[Kind]string{
	KindStart:   "start",
	KindEnd:     "end",
	KindSpinner: "spinner",
	KindLimbo:   "limbo",
	KindAxe:     "axe",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsTerminal true для Start и End
func (k Kind) IsTerminal() bool {
	return k == KindStart || k == KindEnd
}

// HasObstacle true для сегментов с кинематическим препятствием
func (k Kind) HasObstacle() bool {
	return k == KindSpinner || k == KindLimbo || k == KindAxe
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown segment kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind разбирает имя типа без учета регистра
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown segment kind %q", name)
}

// ParseKinds разбирает список имен, сохраняя порядок
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// DefaultKinds набор препятствий по умолчанию
func DefaultKinds() []Kind {
	return []Kind{KindSpinner, KindLimbo, KindAxe}
}
