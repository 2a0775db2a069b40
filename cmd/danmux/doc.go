// Package main hosts the danmux CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into pipeline
// workflow runs, history queries, environment checks, and configuration
// scaffolding. It centralizes configuration resolution, structured logging
// setup, and retry supervision so subcommands can focus on user experience
// instead of wiring.
package main
