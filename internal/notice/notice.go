package notice

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notice is a user-visible confirmation or warning emitted by the
// stores. The UI layer renders it as a transient, non-blocking message.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Publisher interface {
	Publish(c context.Context, n Notice)
}

// LogPublisher writes notices to the structured log.
type LogPublisher struct{}

func NewLogPublisher() LogPublisher {
	return LogPublisher{}
}

func (LogPublisher) Publish(c context.Context, n Notice) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LogPublisher Publish").
		Str("level", string(n.Level)).
		Logger()
	if n.Level == LevelWarning {
		logger.Warn().Msg(n.Message)
		return
	}
	logger.Info().Msg(n.Message)
}

// Recorder keeps every published notice in memory. Used by tests and by
// embedders that flush notices into responses.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func Info(message string) Notice {
	return Notice{Level: LevelInfo, Message: message, At: time.Now()}
}

func Warning(message string) Notice {
	return Notice{Level: LevelWarning, Message: message, At: time.Now()}
}
