// Package app wires the daemon's dependencies.
//
// It builds the metadata storage, the threshold key client, the chain
// provider, the identity and price clients, the session controller and the
// HTTP router from a config.Config, exposing them via App for commands to use.
package app
