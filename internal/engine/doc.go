// Package engine defines the shared types for driving external Modelica
// simulation tools.
//
// The package defines the fundamental interfaces and types around which the
// concrete drivers are built:
//
//   - [Settings]: solver settings passed to the external tool
//   - [Job]: one translation or simulation request
//   - [Run]: the outcome of one external tool invocation
//   - [Engine]: interface implemented by the dymola and optimica packages
//
// # Example
//
//	eng := dymola.New(rep)
//	job := engine.NewJob("MyLib.Examples.Pump", "./MyLib")
//	run, _ := eng.Simulate(ctx, job)
//
// # Thread Safety
//
// Job values are NOT safe for concurrent mutation. For parameter sweeps,
// use the scenario package which clones jobs per worker.
package engine
