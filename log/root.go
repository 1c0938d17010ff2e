package log

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	A64Translate = "a64_translate" // guest decode and IR emission
	IROpt        = "ir_opt"        // block-local optimization passes
	HLE          = "hle"           // stub recognition and host function table
	JIT          = "jit"           // block cache and compile driver
	Interpreter  = "interp"        // reference IR interpreter
)

var knownModules = []string{A64Translate, IROpt, HLE, JIT, Interpreter}

var root atomic.Value

func init() {
	root.Store(Logger(&logger{slog.New(DiscardHandler())}))
}

// ParseLevel accepts the names printed by LevelString in any case, plus
// "warning", "critical" and "max".
func ParseLevel(lvl string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(lvl))
	switch name {
	case "max", "maxverbosity":
		return levelMaxVerbosity, nil
	case "warning":
		name = "warn"
	case "critical":
		name = "crit"
	}
	for _, n := range levelNames {
		if n.name == name {
			return n.level, nil
		}
	}
	return 0, fmt.Errorf("invalid level: %s", lvl)
}

// InitLogger installs a colored terminal logger on stderr. An invalid level
// is fatal.
func InitLogger(logLevel string) {
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(os.Stderr, mustParseLevel(logLevel), true)))
}

// InitJSONLogger is InitLogger with one JSON object per record.
func InitJSONLogger(logLevel string) {
	SetDefault(NewLogger(JSONHandlerWithLevel(os.Stderr, mustParseLevel(logLevel))))
}

func mustParseLevel(logLevel string) slog.Level {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return lvl
}

func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

func Root() Logger {
	return root.Load().(Logger)
}

var (
	moduleMu      sync.RWMutex
	moduleEnabled = make(map[string]bool, len(knownModules))
)

// KnownModules lists the module names accepted by EnableModules.
func KnownModules() []string {
	return append([]string(nil), knownModules...)
}

func setModule(module string, on bool) {
	moduleMu.Lock()
	moduleEnabled[module] = on
	moduleMu.Unlock()
}

func EnableModule(module string)  { setModule(module, true) }
func DisableModule(module string) { setModule(module, false) }

// EnableModules enables a comma separated list of modules; "all" enables
// every known module.
func EnableModules(csv string) {
	for _, m := range strings.Split(csv, ",") {
		switch m = strings.TrimSpace(m); m {
		case "":
		case "all":
			for _, km := range knownModules {
				EnableModule(km)
			}
		default:
			EnableModule(m)
		}
	}
}

// IsModuleEnabled reports whether trace and debug records of module are
// written. Callers building expensive log arguments check it first.
func IsModuleEnabled(module string) bool {
	moduleMu.RLock()
	defer moduleMu.RUnlock()
	return moduleEnabled[module]
}

func Trace(module string, msg string, ctx ...any) {
	if IsModuleEnabled(module) {
		Root().Write(LevelTrace, module, msg, ctx...)
	}
}

func Debug(module string, msg string, ctx ...any) {
	if IsModuleEnabled(module) {
		Root().Write(LevelDebug, module, msg, ctx...)
	}
}

// Info and above are written regardless of the module filter.
func Info(module string, msg string, ctx ...any) {
	Root().Write(LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...any) {
	Root().Write(LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...any) {
	Root().Write(LevelError, module, msg, ctx...)
}
