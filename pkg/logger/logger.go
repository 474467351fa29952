package logger

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func newLogger(w io.Writer, serviceName, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Init инициализирует глобальный JSON-логгер сервиса
// serviceName добавляется в каждую запись для фильтрации в ELK
func Init(serviceName string, level string) {
	log = newLogger(os.Stdout, serviceName, level)
}

// InitWithWriter используется в тестах для перехвата вывода
func InitWithWriter(serviceName string, level string, w io.Writer) {
	log = newLogger(w, serviceName, level)
}

// InitFromEnv настраивает логгер из окружения: LOG_LEVEL задает уровень,
// LOGSTASH_ADDR (если указан) добавляет дублирование в Logstash
func InitFromEnv(serviceName string) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	Init(serviceName, level)

	if addr := os.Getenv("LOGSTASH_ADDR"); addr != "" {
		if err := InitLogstash(addr, serviceName, level); err != nil {
			Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			Info().Str("logstash_addr", addr).Msg("Connected to Logstash")
		}
	}
}

// InitLogstash дублирует вывод логов в Logstash по TCP
// При недоступности Logstash сервис продолжает писать только в stdout
func InitLogstash(addr string, serviceName string, level string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}

	log = newLogger(zerolog.MultiLevelWriter(os.Stdout, conn), serviceName, level)

	return nil
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

func With() zerolog.Context {
	return log.With()
}
