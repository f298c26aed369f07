package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config del logger del servicio y de la CLI.
type Config struct {
	Service string    // campo "service" en cada evento: verifactu-api, verifactu-cli
	Env     string    // development -> consola legible; resto -> JSON
	Level   string    // nivel zerolog; sin distinguir mayúsculas, info si no se reconoce
	Out     io.Writer // os.Stdout por defecto; la CLI escribe en stderr para no mezclar con el XML
}

// Logger envuelve el zerolog.Logger raíz. El orquestador deriva de él un
// sublogger por envío con correlation_id, nif y num.
type Logger struct {
	zl zerolog.Logger
}

// New construye el logger raíz y lo instala como logger global de zerolog.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Out != nil {
		w = cfg.Out
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	ctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	zl := ctx.Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal termina el proceso tras escribir el evento; solo para errores de arranque.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Zerolog devuelve el logger raíz por valor, como lo reciben bootstrap, el
// orquestador y los handlers HTTP.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
