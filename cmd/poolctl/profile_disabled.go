//go:build !profiling

package main

// withProfiling runs callback with profiling enabled according to
// command line flags, mirroring the teacher's cli.withProfiling split
// between a profiling and a !profiling build.
func withProfiling(callback func() error) error {
	return callback()
}
