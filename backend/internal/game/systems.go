package game

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/world"
)

// MaxFrameDelta ограничивает dt кадра после долгих пауз планировщика
const MaxFrameDelta = 100 * time.Millisecond

// FrameSystem система шага симуляции: снимает ввод и вызывает Driver
type FrameSystem struct {
	name     string
	priority int
	ctx      context.Context
	driver   *Driver
	input    input.Source
	logger   zerolog.Logger

	elapsed float64

	// нажатие прыжка между кадрами
	jumpPressed atomic.Bool
	unsubscribe func()
}

// NewFrameSystem создает систему шага симуляции и подписывается
// на нажатия прыжка источника
func NewFrameSystem(ctx context.Context, driver *Driver, source input.Source, logger zerolog.Logger) *FrameSystem {
	fs := &FrameSystem{
		name:     "FrameSystem",
		priority: 10, // Симуляция до рассылки состояния
		ctx:      ctx,
		driver:   driver,
		input:    source,
		logger:   logger,
	}
	fs.unsubscribe = source.Subscribe(func(a input.Action, pressed bool) {
		if a == input.ActionJump && pressed {
			fs.jumpPressed.Store(true)
		}
	})
	return fs
}

// Update выполняет один кадр
func (fs *FrameSystem) Update(deltaTime time.Duration) error {
	if deltaTime > MaxFrameDelta {
		deltaTime = MaxFrameDelta
	}
	dt := deltaTime.Seconds()
	fs.elapsed += dt

	// снимок до сброса флага, иначе нажатие между ними даст два прыжка
	snap := fs.input.Snapshot()
	if dt > 0 {
		snap.JumpPressed = fs.jumpPressed.Swap(false)
	}

	return fs.driver.Step(fs.ctx, snap, fs.elapsed, dt)
}

// Close отписывает систему от источника ввода
func (fs *FrameSystem) Close() {
	if fs.unsubscribe != nil {
		fs.unsubscribe()
	}
}

// Elapsed время симуляции в секундах
func (fs *FrameSystem) Elapsed() float64 {
	return fs.elapsed
}

// GetName возвращает имя системы
func (fs *FrameSystem) GetName() string {
	return fs.name
}

// GetPriority возвращает приоритет системы
func (fs *FrameSystem) GetPriority() int {
	return fs.priority
}

// Broadcaster интерфейс для отправки поз клиентам
type Broadcaster interface {
	BroadcastTransforms(objects []world.Object, tick uint64) error
}

// NetworkSyncSystem система синхронизации состояния с клиентами
type NetworkSyncSystem struct {
	name          string
	priority      int
	gameTicker    *GameTicker
	worldManager  *world.Manager
	broadcaster   Broadcaster
	logger        zerolog.Logger
	lastBroadcast time.Time

	broadcastInterval time.Duration
}

// NewNetworkSyncSystem создает новую систему сетевой синхронизации
func NewNetworkSyncSystem(gameTicker *GameTicker, worldManager *world.Manager, broadcaster Broadcaster, interval time.Duration, logger zerolog.Logger) *NetworkSyncSystem {
	if interval <= 0 {
		interval = 50 * time.Millisecond // 20 FPS для клиентов
	}
	return &NetworkSyncSystem{
		name:              "NetworkSyncSystem",
		priority:          100, // Отправляем в конце тика
		gameTicker:        gameTicker,
		worldManager:      worldManager,
		broadcaster:       broadcaster,
		logger:            logger,
		broadcastInterval: interval,
	}
}

// Update отправляет позы движущихся тел клиентам
func (nss *NetworkSyncSystem) Update(deltaTime time.Duration) error {
	now := time.Now()
	if now.Sub(nss.lastBroadcast) < nss.broadcastInterval {
		return nil
	}
	nss.lastBroadcast = now

	if nss.broadcaster == nil {
		return nil
	}

	objects := nss.worldManager.MovingObjects()
	if len(objects) == 0 {
		return nil
	}
	return nss.broadcaster.BroadcastTransforms(objects, nss.gameTicker.GetTickCount())
}

// GetName возвращает имя системы
func (nss *NetworkSyncSystem) GetName() string {
	return nss.name
}

// GetPriority возвращает приоритет системы
func (nss *NetworkSyncSystem) GetPriority() int {
	return nss.priority
}

// GameMetricsSystem периодически логирует состояние цикла
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	driver     *Driver
	logger     zerolog.Logger

	lastMetricsLog  time.Time
	metricsInterval time.Duration
}

// NewGameMetricsSystem создает новую систему сбора метрик
func NewGameMetricsSystem(gameTicker *GameTicker, driver *Driver, logger zerolog.Logger) *GameMetricsSystem {
	return &GameMetricsSystem{
		name:            "GameMetricsSystem",
		priority:        200, // Метрики в самом конце
		gameTicker:      gameTicker,
		driver:          driver,
		logger:          logger,
		lastMetricsLog:  time.Now(),
		metricsInterval: 30 * time.Second,
	}
}

// Update логирует метрики раз в metricsInterval
func (gms *GameMetricsSystem) Update(deltaTime time.Duration) error {
	now := time.Now()
	if now.Sub(gms.lastMetricsLog) < gms.metricsInterval {
		return nil
	}
	gms.lastMetricsLog = now

	stats := gms.gameTicker.GetStats()
	actualTPS, _ := stats["actual_tps"].(float64)
	targetTPS, _ := stats["target_tps"].(int)

	gms.logger.Info().
		Float64("actual_tps", actualTPS).
		Int("target_tps", targetTPS).
		Uint64("frames", gms.driver.Frames()).
		Uint64("aborted", gms.driver.Aborted()).
		Interface("average_tick", stats["average_tick_time"]).
		Msg("game metrics")

	if actualTPS < float64(targetTPS)*0.9 {
		gms.logger.Warn().Float64("actual_tps", actualTPS).Msg("tps below target")
	}

	return nil
}

// GetName возвращает имя системы
func (gms *GameMetricsSystem) GetName() string {
	return gms.name
}

// GetPriority возвращает приоритет системы
func (gms *GameMetricsSystem) GetPriority() int {
	return gms.priority
}
