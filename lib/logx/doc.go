// Package logx provides the module's logger construction. Library packages
// accept an optional zerolog.Logger and default to zerolog.Nop(); the CLI
// wires a console logger from here.
package logx
