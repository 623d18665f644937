// Package commands defines the tkeyd CLI.
//
// Commands
//
//   - serve  Run the HTTP API: login flow, share management and wallet queries
//   - rekey  Re-encrypt a device share file under a new passphrase
package commands
