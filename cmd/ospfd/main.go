// Command ospfd launches one link-state routing daemon for a single
// router identifier, reading operator commands from standard input.
package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"

	"github.com/bio-routing/ospfd/protocols/ospf/metrics"
	"github.com/bio-routing/ospfd/protocols/ospf/server"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/util/log"
	btime "github.com/bio-routing/ospfd/util/time"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "ospfd"
	app.Usage = "link-state routing daemon simulation"
	app.ArgsUsage = "<router_id>"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "port-base", Value: server.DefaultPortBase, Usage: "UDP port base added to the router id"},
		cli.StringFlag{Name: "metrics-addr", Value: "", Usage: "address to serve /metrics on, empty disables it"},
		cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: ospfd <router_id>")
	}

	if err := log.SetLevel(c.String("log-level")); err != nil {
		return err
	}

	id, err := parseArgRouterID(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.PortBase = c.Int("port-base")

	transport, err := server.NewUDPTransport(id, cfg.PortBase)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, id.String())

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.WithFields(log.Fields{"addr": addr}).Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	srv := server.NewServer(id, cfg, transport, m)
	srv.Start(
		btime.NewTicker(cfg.HelloInterval),
		btime.NewTicker(cfg.DBDInterval),
		btime.NewTicker(cfg.SweepInterval),
	)
	defer srv.Stop()

	return commandLoop(srv, os.Stdin)
}

func parseArgRouterID(s string) (types.RouterID, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid router id %q", s)
	}

	id := types.RouterID(n)
	if !id.Valid() {
		return 0, fmt.Errorf("router id %d out of range 1..99", n)
	}

	return id, nil
}

// commandLoop reads operator commands line by line until "exit" or EOF.
func commandLoop(srv *server.Server, in *os.File) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := srv.HandleCommand(scanner.Text())
		if err == server.ErrExit {
			return nil
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	return scanner.Err()
}
