package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	mu       sync.RWMutex
	instance *zap.Logger
)

// Init inicializa el logger singleton con la configuración dada.
// Es idempotente: solo la primera llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		l := build(cfg)
		mu.Lock()
		instance = l
		mu.Unlock()
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea un logger por defecto (dev, info).
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l == nil {
		Init(Config{Env: "dev", Level: "info", ServiceName: "brandkit"})
		mu.RLock()
		l = instance
		mu.RUnlock()
	}
	return l
}

// S retorna el SugaredLogger del singleton (printf-style).
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// ReplaceForTests reemplaza el singleton (por ejemplo con zap.NewNop()).
// Usar sólo en tests.
func ReplaceForTests(l *zap.Logger) {
	once.Do(func() {})
	mu.Lock()
	instance = l
	mu.Unlock()
}
