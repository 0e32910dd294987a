// Package main provides the CLI entry point for the netleaf stack.
package main

import (
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/netleaf/netleaf/internal/config"
	"github.com/netleaf/netleaf/internal/logging"
	"github.com/netleaf/netleaf/internal/loopback"
	"github.com/netleaf/netleaf/internal/tcpip"
	"github.com/netleaf/netleaf/internal/udp"
)

var (
	// Version is set at build time
	Version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "netleaf",
		Short: "netleaf - Userspace UDP network stack",
		Long: `netleaf is a small userspace network stack whose transport layer
is UDP: per-port connection registration, datagram framing with
checksums, and receive-side validation and dispatch.

The echo command demonstrates the full datagram path by joining two
stacks over an in-memory link.`,
		Version: Version,
	}

	rootCmd.AddCommand(echoCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func echoCmd() *cobra.Command {
	var configPath string
	var count int

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run the loopback echo demo",
		Long: `Run two UDP stacks over an in-memory link: a server that echoes
every datagram back to its sender, and a client that sends a batch of
datagrams and counts the replies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loaded
			}
			if count > 0 {
				cfg.Echo.Count = count
			}

			logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

			if cfg.Metrics.Enabled {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				go func() {
					if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
						logger.Error("metrics server failed", logging.KeyError, err.Error())
					}
				}()
				fmt.Printf("Metrics: http://%s/metrics\n", cfg.Metrics.Address)
			}

			if err := runEcho(cfg); err != nil {
				return err
			}

			if cfg.Metrics.Enabled {
				fmt.Println("Press Ctrl+C to stop the metrics endpoint.")
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of datagrams to send (overrides config)")

	return cmd
}

// echoServer echoes every inbound payload back to its sender.
type echoServer struct {
	stack   *udp.Stack
	pending []byte
	replyTo tcpip.FullAddress
}

func (e *echoServer) SendData(c *udp.Conn, b []byte) error {
	n := copy(b, e.pending)
	return e.stack.SendTo(c, e.replyTo, b[:n])
}

func (e *echoServer) NewData(c *udp.Conn, payload []byte, src, dst tcpip.FullAddress) error {
	e.pending = append(e.pending[:0], payload...)
	e.replyTo = src
	return e.stack.RequestSend(c)
}

// echoClient sends a fixed payload and tallies the replies.
type echoClient struct {
	stack    *udp.Stack
	payload  []byte
	received int
	bytes    int
}

func (e *echoClient) SendData(c *udp.Conn, b []byte) error {
	n := copy(b, e.payload)
	return e.stack.Send(c, b[:n])
}

func (e *echoClient) NewData(c *udp.Conn, payload []byte, src, dst tcpip.FullAddress) error {
	e.received++
	e.bytes += len(payload)
	return nil
}

func runEcho(cfg *config.Config) error {
	serverNet, clientNet := loopback.Pair(
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
	)

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	stackCfg := udp.Config{
		MaxDatagramSize: cfg.Stack.MaxDatagramSize,
		TxBuffers:       cfg.Stack.TxBuffers,
	}
	serverStack := udp.NewStack(serverNet, stackCfg, logger, nil)
	clientStack := udp.NewStack(clientNet, stackCfg, logger, nil)
	serverNet.Attach(serverStack)
	clientNet.Attach(clientStack)

	server := &echoServer{stack: serverStack}
	serverConn := udp.NewConn(server, tcpip.FullAddress{})
	if err := serverStack.Open(serverConn, cfg.Echo.Port); err != nil {
		return fmt.Errorf("failed to open server port %d: %w", cfg.Echo.Port, err)
	}

	client := &echoClient{stack: clientStack, payload: []byte(cfg.Echo.Payload)}
	clientConn := udp.NewConn(client, tcpip.FullAddress{
		Addr: serverNet.Addr(),
		Port: cfg.Echo.Port,
	})
	if err := clientStack.Open(clientConn, 0); err != nil {
		return fmt.Errorf("failed to open client port: %w", err)
	}

	fmt.Printf("Echo server on %s:%d, client on %s:%d\n",
		serverNet.Addr(), serverConn.LocalPort(),
		clientNet.Addr(), clientConn.LocalPort())

	sent := 0
	for i := 0; i < cfg.Echo.Count; i++ {
		if err := clientStack.RequestSend(clientConn); err != nil {
			return fmt.Errorf("send %d failed: %w", i, err)
		}
		sent++
	}

	clientStack.Close(clientConn)
	serverStack.Close(serverConn)

	fmt.Printf("Sent %d datagrams, received %d echoes (%s)\n",
		sent, client.received, humanize.Bytes(uint64(client.bytes)))
	return nil
}
