//go:build profiling

package main

import "github.com/pkg/profile"

var (
	profileDir    = app.Flag("profile-dir", "Write profile to the specified directory").Hidden().String()
	profileCPU    = app.Flag("profile-cpu", "Enable CPU profiling").Hidden().Bool()
	profileMemory = app.Flag("profile-memory", "Enable memory profiling").Hidden().Bool()
)

// withProfiling runs callback with profiling enabled according to
// command line flags, mirroring the teacher's cli.withProfiling split
// between a profiling and a !profiling build.
func withProfiling(callback func() error) error {
	if *profileDir != "" {
		opts := []func(*profile.Profile){profile.ProfilePath(*profileDir)}

		if *profileMemory {
			opts = append(opts, profile.MemProfile)
		}

		if *profileCPU {
			opts = append(opts, profile.CPUProfile)
		}

		defer profile.Start(opts...).Stop()
	}

	return callback()
}
