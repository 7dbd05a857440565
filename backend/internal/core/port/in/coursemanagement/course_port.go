package coursemanagement

import (
	"x-course/backend/internal/core/domain/course"
)

// CoursePort определяет интерфейс управления трассой для входящих адаптеров
type CoursePort interface {
	// Layout возвращает текущую трассу
	Layout() *course.Layout

	// RequestRegenerate ставит перегенерацию в очередь, она применяется между кадрами.
	// seed == nil дает невоспроизводимую трассу.
	RequestRegenerate(seed *uint64)

	// OnLayout регистрирует обработчик новой трассы
	OnLayout(fn func(*course.Layout))
}
