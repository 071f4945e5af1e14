package config

import (
	"runtime"
	"time"
)

const (
	DefaultEmulatorTimeout   = 10 * time.Second
	DefaultMaxOutputBytes    = 1 << 20
	DefaultEmulatorWaitDelay = time.Second
)

// EmulatorConfig describes how the external MIPS engine binary is launched.
type EmulatorConfig struct {
	Path           string
	Args           []string
	Timeout        time.Duration
	WaitDelay      time.Duration
	MaxOutputBytes int
	// ScratchDir is the parent of the per-run directories, os.TempDir when empty.
	ScratchDir string
	// MaxConcurrent caps engine processes alive at once across all requests.
	MaxConcurrent int
}

func NewEmulatorConfig() *EmulatorConfig {
	return &EmulatorConfig{
		Path:           getEnv("EMULATOR_PATH", "mips-emulator"),
		Args:           getEnvList("EMULATOR_ARGS"),
		Timeout:        getEnvSeconds("EMULATOR_TIMEOUT_SEC", DefaultEmulatorTimeout),
		WaitDelay:      DefaultEmulatorWaitDelay,
		MaxOutputBytes: getEnvInt("EMULATOR_MAX_OUTPUT_BYTES", DefaultMaxOutputBytes),
		ScratchDir:     getEnv("EMULATOR_SCRATCH_DIR", ""),
		MaxConcurrent:  getEnvInt("EMULATOR_MAX_CONCURRENT", runtime.NumCPU()),
	}
}
