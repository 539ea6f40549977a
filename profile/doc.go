// Package profile provides optional runtime profiling for folio.
//
// Profiling integrates [github.com/pkg/profile] and is compiled in only with
// the "pprof" build tag. Without the tag, [Profiler.Start] returns a no-op
// [Stopper] and [Modes] reports no modes.
//
//	p := profile.New(profile.WithMode("cpu"), profile.WithPath("/tmp/prof"))
//	defer p.Start().Stop()
//
// Profiles are written to the configured directory with names matching the
// mode (cpu.pprof, mem.pprof, ...) and can be inspected with:
//
//	go tool pprof -http=: /tmp/prof/cpu.pprof
//
// Builds with the pprof tag also register the net/http/pprof handlers on
// [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
