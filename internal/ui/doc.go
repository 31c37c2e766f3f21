// Package ui provides terminal UI components for the octanews CLI.
//
// This package uses Bubble Tea and Lipgloss for two kinds of output:
//
//   - Run-once output: a command header, then a success or failure box.
//     Failure boxes carry troubleshooting tips derived from the error.
//   - Console: an interactive Bubble Tea program for the connect command,
//     showing inbound and outbound messages, the client state and an input
//     line for sending text.
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Login", "octanews login", []ui.Detail{{Key: "Endpoint", Value: endpoint}})
//	token, err := wsclient.Login(ctx, cc)
//	if err != nil {
//	    p.PrintError("Login failed", err, wsclient.GetTroubleshootingHint(err))
//	    return err
//	}
//	p.PrintSuccess("Signed in", []ui.Detail{{Key: "Token", Value: token.Masked()}})
//
// # Logging Integration
//
// This package expects logging to be controlled via the OCTANEWS_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui
