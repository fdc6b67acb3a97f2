package debug

import (
	"io"
	"log"
	"os"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Run summary (shot count, files written)
	LevelLive    = 2 // Per-shot progress (rotation, release, file)
	LevelVerbose = 3 // Negotiation details, every device step
	LevelTrace   = 4 // SDK calls, GPIO, serial traffic
)

var (
	level  int
	out    io.Writer = os.Stdout
	logger *log.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = run summary
// 2 = per-shot progress
// 3 = verbose (parameter negotiation, device stages)
// 4 = trace (SDK, GPIO, serial)
func Init(debugLevel int) {
	level = debugLevel
	logger = nil
	if level > LevelOff {
		logger = log.New(out, "[v2scan] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. Init must be called again for the
// change to take effect on an already initialized logger.
func SetOutput(w io.Writer) {
	out = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// --- Level 1 (Info) ---

// Info prints a level 1 message.
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] "+format, args...)
	}
}

// Summary prints a framed title (level 1).
func Summary(title string) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("═══════════════════════════════════════")
		logger.Printf("  %s", title)
		logger.Printf("═══════════════════════════════════════")
	}
}

// Plan prints the multi-view plan (level 1).
func Plan(count, start, step int) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] Plan: %d shots, start=%d°, step=%d°", count, start, step)
	}
}

// Value prints a named value (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO]   %s = %v", name, value)
	}
}

// --- Level 2 (Live) ---

// Live prints a level 2 message.
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] "+format, args...)
	}
}

// Rotate prints a turntable rotation (level 2).
func Rotate(angle int) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Rotating turntable to %d°", angle)
	}
}

// Shot prints the start of a shot (level 2).
func Shot(index, count int, file string) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Shot %d/%d -> %s", index, count, file)
	}
}

// --- Level 3 (Verbose) ---

// Verbose prints a level 3 message.
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] "+format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] %s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Printf("  %s", name)
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Stage prints a device stage about to run (level 3).
func Stage(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] Performing %s...", name)
	}
}

// --- Level 4 (Trace) ---

// Trace prints a level 4 message.
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[TRACE] "+format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[GPIO] %s pin=%d value=%v", operation, pin, value)
	}
}

// SDK prints a device SDK call (level 4).
func SDK(call string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[SDK] %s %v", call, args)
	}
}

// --- General ---

// Error prints a non-fatal error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[ERROR] %v", err)
	}
}
