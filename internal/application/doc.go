// Package application provides application initialization and dependency wiring.
// It selects the configuration store, builds the resolver and service, and
// assembles handlers, routers, and the HTTP server, keeping the main package
// focused on CLI parsing and orchestration.
package application
