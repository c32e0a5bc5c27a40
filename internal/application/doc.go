// Package application provides application initialization and dependency wiring.
// It builds the solver, cutting planner, plan storage, handlers and HTTP
// server from a resolved config, keeping the main package focused on CLI
// parsing and orchestration.
package application
