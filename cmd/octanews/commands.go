package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/octanews/internal/ui"
	"github.com/muurk/octanews/internal/wsclient"
)

func init() {
	addConnectionFlags(loginCmd)
	addConnectionFlags(sendCmd)
	addConnectionFlags(connectCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(connectCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loginCmd signs in and prints the masked session token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print the session token",
	Long: `Sign in at /authentication/sign_in on the endpoint host and print the
issued session token (masked). Useful to check credentials and proxy settings
without opening a WebSocket session.`,
	Example: `  # Sign in using the configuration file
  octanews login

  # Sign in with explicit credentials
  octanews login --endpoint wss://octane.example.com/messaging/x --client id --ask-secret`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	cc, err := clientContext(cmd)
	if err != nil {
		return reportFailure("Invalid configuration", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Login", "octanews login", []ui.Detail{
		{Key: "Endpoint", Value: cc.Endpoint().String()},
		{Key: "Client", Value: cc.Client()},
	})

	token, err := login(ctx, cc)
	if err != nil {
		return reportFailure("Sign-in failed", err)
	}

	p.PrintSuccess("Signed in", []ui.Detail{{Key: "Token", Value: token.Masked()}})
	return nil
}

// Send command flags
var (
	sendBinary bool
	sendWait   time.Duration
)

// sendCmd sends one message and optionally waits for a reply
var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message to the endpoint",
	Long: `Connect to the endpoint, send one message and disconnect.

With --binary the message is hex-decoded and sent as a binary frame.
With --wait the command waits up to the given duration for the first
inbound message and prints it.`,
	Example: `  # Send a text message
  octanews send 'hello'

  # Send bytes and wait for the echo
  octanews send --binary deadbeef --wait 5s`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendBinary, "binary", false, "Treat the message as hex and send a binary frame")
	sendCmd.Flags().DurationVar(&sendWait, "wait", 0, "Wait for the first inbound message (0 = do not wait)")
}

func runSend(cmd *cobra.Command, args []string) error {
	cc, err := clientContext(cmd)
	if err != nil {
		return reportFailure("Invalid configuration", err)
	}

	var payload []byte
	if sendBinary {
		if payload, err = hex.DecodeString(args[0]); err != nil {
			return fmt.Errorf("invalid hex payload: %w", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	replies := make(chan string, 1)
	deliver := func(s string) {
		select {
		case replies <- s:
		default:
		}
	}
	client, err := wsclient.NewEndpointClient(cc, wsclient.HandlerFuncs{
		Text:   deliver,
		Binary: func(b []byte) { deliver(hex.EncodeToString(b)) },
	}, clientOptions()...)
	if err != nil {
		return reportFailure("Invalid configuration", err)
	}

	svc := newService()
	defer svc.Stop()

	if err := svc.InitClient(ctx, client); err != nil {
		return reportFailure("Connection failed", err)
	}

	if sendBinary {
		err = client.SendBinary(payload)
	} else {
		err = client.SendText(args[0])
	}
	if err != nil {
		return reportFailure("Send failed", err)
	}

	details := []ui.Detail{
		{Key: "Endpoint", Value: cc.Endpoint().String()},
		{Key: "Sent", Value: args[0]},
	}

	if sendWait > 0 {
		select {
		case reply := <-replies:
			details = append(details, ui.Detail{Key: "Received", Value: reply})
		case <-time.After(sendWait):
			ui.NewPrinter(os.Stdout).PrintWarning("Message sent, no reply", append(details, ui.Detail{Key: "Waited", Value: sendWait.String()}))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ui.NewPrinter(os.Stdout).PrintSuccess("Message sent", details)
	return nil
}

// connectCmd opens an interactive session
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open an interactive messaging session",
	Long: `Connect to the endpoint and keep the session open.

In a terminal an interactive console shows inbound and outbound messages and
the client state; each entered line is sent as a text message. When stdout
is not a terminal, lines read from stdin are sent and inbound messages are
printed one per line.`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	cc, err := clientContext(cmd)
	if err != nil {
		return reportFailure("Invalid configuration", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := newService()
	defer svc.Stop()

	if !ui.IsTerminal() {
		return runLineMode(ctx, svc, cc)
	}

	var program *tea.Program
	client, err := wsclient.NewEndpointClient(cc, wsclient.HandlerFuncs{
		Text:   func(s string) { program.Send(ui.InboundMsg{Text: s}) },
		Binary: func(b []byte) { program.Send(ui.InboundMsg{Binary: b}) },
	}, clientOptions()...)
	if err != nil {
		return reportFailure("Invalid configuration", err)
	}
	program = tea.NewProgram(ui.NewConsoleModel(client, cc.Endpoint().String()), tea.WithAltScreen(), tea.WithContext(ctx))

	if err := svc.InitClient(ctx, client); err != nil {
		return reportFailure("Connection failed", err)
	}

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runLineMode(ctx context.Context, svc *wsclient.Service, cc *wsclient.ClientContext) error {
	client, err := wsclient.NewEndpointClient(cc, wsclient.HandlerFuncs{
		Text:   func(s string) { fmt.Println(s) },
		Binary: func(b []byte) { fmt.Println(hex.EncodeToString(b)) },
	}, clientOptions()...)
	if err != nil {
		return err
	}
	if err := svc.InitClient(ctx, client); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return fmt.Errorf("client %s", client.State())
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := client.SendText(line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
	}
}

// reportFailure prints a failure box with troubleshooting tips and returns err
func reportFailure(title string, err error) error {
	ui.NewPrinter(os.Stdout).PrintError(title, err, wsclient.GetTroubleshootingHint(err))
	return err
}
