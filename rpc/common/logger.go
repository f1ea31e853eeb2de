package common

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

// dRideLogger implements the ILogger interface with custom formatting
type dRideLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *dRideLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *dRideLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *dRideLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *dRideLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *dRideLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *dRideLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *dRideLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// CreateLogger is the logger factory registered with dragonboat
func CreateLogger(pkgName string) logger.ILogger {
	return &dRideLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// dragonboat's internal loggers, they are noisy below warning level
var raftLoggers = []string{"raft", "raftdb", "rsm", "transport", "dragonboat", "grpc", "util", "logdb", "config"}

// our own loggers
var appLoggers = []string{"store", "rstore", "transport/rpc", "rpc", "router", "ride", "api", "events", "cli"}

// InitLoggers registers the custom logger factory and sets the level of all
// known loggers. It must be called before the first logger.GetLogger call of a
// package that should use the custom format.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	raftLvl := lvl
	if raftLvl > logger.WARNING {
		raftLvl = logger.WARNING
	}
	for _, name := range raftLoggers {
		logger.GetLogger(name).SetLevel(raftLvl)
	}
	for _, name := range appLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
