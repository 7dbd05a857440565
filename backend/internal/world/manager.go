package world

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Manager хранит объекты трассы и их последние позы.
// Пишет игровой цикл, читают сетевые горутины.
type Manager struct {
	objects map[string]*Object
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		objects: make(map[string]*Object),
	}
}

// AddObject добавляет или заменяет объект
func (m *Manager) AddObject(obj Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := obj
	m.objects[obj.ID] = &o
}

// GetObject возвращает копию объекта
func (m *Manager) GetObject(id string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, exists := m.objects[id]
	if !exists {
		return Object{}, false
	}
	return *obj, true
}

// RemoveObject удаляет объект
func (m *Manager) RemoveObject(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, id)
}

// Clear удаляет все объекты
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make(map[string]*Object)
}

// GetAllObjects возвращает копии всех объектов, отсортированные по ID
func (m *Manager) GetAllObjects() []Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Object, 0, len(m.objects))
	for _, obj := range m.objects {
		result = append(result, *obj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// MovingObjects возвращает объекты, которые нужно синхронизировать с движком
func (m *Manager) MovingObjects() []Object {
	all := m.GetAllObjects()
	moving := all[:0]
	for _, obj := range all {
		if obj.Moving() {
			moving = append(moving, obj)
		}
	}
	return moving
}

// UpdateObjectState обновляет позицию и вращение объекта
func (m *Manager) UpdateObjectState(id string, position mgl64.Vec3, rotation mgl64.Quat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if obj, exists := m.objects[id]; exists {
		obj.Position = position
		obj.Rotation = rotation
	}
}

// Count число объектов
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
