// Package kernel is the execution core of the runtime: it defines the closed
// language set, the backend contract, the per-language tier chain, and the
// Dispatcher that routes a cell execution request to the right backend,
// stamps per-language execution counts, and normalizes every backend failure
// into a well-formed result.
//
// # Overview
//
// A caller hands the Dispatcher a [Request] (language, source, options) and
// always gets back a well-formed [Result]: backend failures never propagate
// past this boundary. Each supported language maps to a [Backend], usually a
// [Chain] of tiers that degrades gracefully from a privileged engine to a
// deterministic simulated response.
//
// # Basic Usage
//
//	counters := kernel.NewCounters()
//	d, err := kernel.NewDispatcher(kernel.Config{
//	    Backends: backends,
//	    Counters: counters,
//	})
//	res, err := d.Execute(ctx, kernel.Request{
//	    Language: kernel.Python,
//	    Source:   "print('hi')",
//	})
//
// Counters are explicit process-scoped state: pass the same value across
// dispatches to keep sequence numbers monotonic, and reset it between test
// runs.
package kernel
