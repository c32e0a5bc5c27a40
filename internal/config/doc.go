// Package config resolves server and solver settings (port, default stock
// length, solver time limit, variant order, rate limits) from defaults,
// environment variables, an optional YAML file and CLI flags, later sources
// overriding earlier ones.
package config
