package ratelimit

import (
	"sync"
	"time"
)

// Интервал фоновой очистки устаревших окон
const sweepInterval = 5 * time.Minute

// Config параметры лимитера для одного маршрута
type Config struct {
	// Window длительность окна
	Window time.Duration
	// Max допустимое число запросов в окне
	Max int
}

// Result решение лимитера по одному запросу
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt момент окончания текущего окна
	ResetAt time.Time
	// RetryAfter сколько ждать до следующей попытки (только при отказе)
	RetryAfter time.Duration
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter скользящее окно запросов по ключу, состояние в памяти процесса
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	entries map[string]*entry
	stopCh  chan struct{}
	// now подменяется в тестах
	now func() time.Time
}

// New создает лимитер и запускает фоновую очистку
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	go l.sweepLoop()

	return l
}

// Check регистрирует запрос по ключу и возвращает решение
func (l *Limiter) Check(key string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.cfg.Window {
		// Новое окно: первый запрос всегда проходит
		e = &entry{count: 1, windowStart: now}
		l.entries[key] = e
	} else {
		e.count++
	}

	resetAt := e.windowStart.Add(l.cfg.Window)

	remaining := l.cfg.Max - e.count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:   e.count <= l.cfg.Max,
		Limit:     l.cfg.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = resetAt.Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}

	return res
}

// Stop останавливает фоновую очистку
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// EntryCount возвращает число отслеживаемых ключей (для тестов)
func (l *Limiter) EntryCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// sweep удаляет ключи, простаивающие дольше двух окон
func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.Sub(e.windowStart) > 2*l.cfg.Window {
			delete(l.entries, key)
		}
	}
}
