package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/octanews/internal/config"
	"github.com/muurk/octanews/internal/discovery"
	"github.com/muurk/octanews/internal/logging"
	"github.com/muurk/octanews/internal/simulator"
	"github.com/muurk/octanews/internal/ui"
)

// Simulate command flags
var (
	simHost      string
	simPort      int
	simPath      string
	simClient    string
	simSecret    string
	simAdvertise bool
	simInstance  string
	simTLS       bool
	simCertFile  string
	simKeyFile   string
)

// Discover command flags
var discoverTimeout time.Duration

// Config command flags
var configForce bool

func init() {
	simulateCmd.Flags().StringVar(&simHost, "host", "localhost", "Listen host")
	simulateCmd.Flags().IntVar(&simPort, "port", 8080, "Listen port")
	simulateCmd.Flags().StringVar(&simPath, "path", simulator.DefaultPath, "Messaging path")
	simulateCmd.Flags().StringVar(&simClient, "sim-client", simulator.DefaultClient, "Accepted client ID")
	simulateCmd.Flags().StringVar(&simSecret, "sim-secret", simulator.DefaultSecret, "Accepted client secret")
	simulateCmd.Flags().BoolVar(&simAdvertise, "advertise", false, "Advertise the simulator over mDNS")
	simulateCmd.Flags().StringVar(&simInstance, "instance", "octanews-simulator", "mDNS instance name")

	simulateCmd.Flags().BoolVar(&simTLS, "tls", false, "Serve https and wss")
	simulateCmd.Flags().StringVar(&simCertFile, "tls-cert", "", "TLS certificate file (self-signed when empty)")
	simulateCmd.Flags().StringVar(&simKeyFile, "tls-key", "", "TLS private key file")

	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for advertisements")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(configCmd)
}

// simulateCmd runs a local login plus echo endpoint
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a local endpoint simulator",
	Long: `Run a local endpoint that accepts sign-in requests and echoes every
WebSocket message back to the sender. Useful for trying the client without
access to a real endpoint.

Sign-in is served at /authentication/sign_in and issues the session cookie;
WebSocket upgrades without a valid cookie are rejected with 401.`,
	Example: `  # Start the simulator on port 8080
  octanews simulate

  # Connect to it from another terminal
  octanews connect --endpoint ws://localhost:8080/messaging/test --client client --secret secret

  # Serve wss with a generated certificate
  octanews simulate --tls
  octanews send hello --endpoint wss://localhost:8080/messaging/test --insecure --wait 2s`,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	srv, err := simulator.New(&simulator.Config{
		Host:   simHost,
		Port:   simPort,
		Path:   simPath,
		Client: simClient,
		Secret: simSecret,

		TLS:      simTLS || simCertFile != "",
		CertFile: simCertFile,
		KeyFile:  simKeyFile,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := srv.Start(); err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintSuccess("Simulator running", []ui.Detail{
		{Key: "Endpoint", Value: srv.URL()},
		{Key: "Client", Value: simClient},
		{Key: "Sign-in", Value: srv.SignInURL()},
	})

	if simAdvertise {
		adv, err := discovery.Advertise(simInstance, srv.Port(), srv.Path(), srv.Scheme() == "wss")
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
			p.Println(ui.NoticeStyle.Render("Advertised as " + simInstance + " (" + discovery.ServiceType + ")"))
		}
	}

	return srv.Run(ctx)
}

// discoverCmd lists endpoints advertised over mDNS
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find endpoints advertised on the local network",
	Long: `Listen for mDNS advertisements of ` + discovery.ServiceType + ` and list the
endpoints found. Simulators started with --advertise show up here.`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Discover", "octanews discover", []ui.Detail{
		{Key: "Service", Value: discovery.ServiceType},
		{Key: "Timeout", Value: discoverTimeout.String()},
	})

	endpoints, err := scanner.Scan(ctx)
	if err != nil {
		return reportFailure("Discovery failed", err)
	}

	if len(endpoints) == 0 {
		p.PrintWarning("No endpoints found", []ui.Detail{
			{Key: "Hint", Value: "start one with 'octanews simulate --advertise'"},
		})
		return nil
	}

	details := make([]ui.Detail, 0, len(endpoints))
	for _, ep := range endpoints {
		details = append(details, ui.Detail{Key: ep.Instance, Value: ep.URL()})
	}
	p.PrintSuccess("Found "+strconv.Itoa(len(endpoints))+" endpoint(s)", details)
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Example().Save(path); err != nil {
			return err
		}

		ui.NewPrinter(os.Stdout).PrintSuccess("Configuration written", []ui.Detail{
			{Key: "Path", Value: path},
			{Key: "Secret", Value: "set it in the file or in " + config.SecretEnvVar},
		})
		return nil
	},
}
