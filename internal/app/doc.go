// Package app wires the whole application together: it loads component
// manifests, registers Go modules, validates manifest/code parity, and runs
// the HTTP and socket.io transports on one listener.
package app
