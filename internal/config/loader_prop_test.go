package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPropertyOverridesWinOverFile(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	props := gopter.NewProperties(params)

	props.Property("CLI values replace file values", prop.ForAll(
		func(fileMs, flagMs, fileIndex, flagIndex int) bool {
			fs := newConfigFs(t, fmt.Sprintf("interval: %dms\naddress_index: %d\n", fileMs, fileIndex))

			interval := time.Duration(flagMs) * time.Millisecond
			cfg, err := Load(fs, testConfigPath, CLIOverrides{Interval: &interval, AddressIndex: &flagIndex})
			if err != nil {
				return false
			}
			return cfg.Interval == interval && cfg.AddressIndex == flagIndex
		},
		gen.IntRange(1, 10000),
		gen.IntRange(1, 10000),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	props.Property("file values apply when no override is set", prop.ForAll(
		func(fileMs, fileIndex int) bool {
			fs := newConfigFs(t, fmt.Sprintf("timeout: %dms\naddress_index: %d\n", fileMs, fileIndex))
			cfg, err := Load(fs, testConfigPath, CLIOverrides{})
			if err != nil {
				return false
			}
			return cfg.Timeout == time.Duration(fileMs)*time.Millisecond && cfg.AddressIndex == fileIndex
		},
		gen.IntRange(1, 10000),
		gen.IntRange(0, 4),
	))

	props.TestingRun(t, gopter.ConsoleReporter(false))
}
