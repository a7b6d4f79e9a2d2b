// Command rollup-node wires the execution-coordination core - the
// Derivation Actor, Derivation State, Build Task, Engine State, and
// Forkchoice Task - to a configured execution engine endpoint. CLI/config
// loading beyond this wiring is out of scope: flags resolve only the
// values the core itself needs to start.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/prysmaticlabs/rollup-node/internal/actor"
	"github.com/prysmaticlabs/rollup-node/internal/buildtask"
	"github.com/prysmaticlabs/rollup-node/internal/derivation"
	"github.com/prysmaticlabs/rollup-node/internal/enginestate"
	"github.com/prysmaticlabs/rollup-node/internal/engineapi"
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
	"github.com/prysmaticlabs/rollup-node/internal/watch"
)

var log = logrus.WithField("prefix", "main")

var (
	engineEndpointFlag = &cli.StringFlag{
		Name:     "engine-endpoint",
		Usage:    "HTTP URL of the execution engine's authenticated Engine API port",
		Required: true,
	}
	engineJWTSecretFlag = &cli.StringFlag{
		Name:     "engine-jwt-secret",
		Usage:    "path to the 32-byte hex JWT secret shared with the execution engine",
		Required: true,
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "logging verbosity (trace, debug, info, warn, error)",
		Value: "info",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "address to serve Prometheus metrics on; empty disables metrics",
		Value: "",
	}
)

func main() {
	app := &cli.App{
		Name:  "rollup-node",
		Usage: "drives L2 chain construction against an execution engine via the Engine API",
		Flags: []cli.Flag{
			engineEndpointFlag,
			engineJWTSecretFlag,
			logLevelFlag,
			metricsAddrFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("rollup-node exited with error")
	}
}

func run(cliCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cliCtx.String(logLevelFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	registry := prometheus.NewRegistry()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := &rollup.Config{}

	engine, err := dialEngine(ctx, cliCtx.String(engineEndpointFlag.Name), cliCtx.String(engineJWTSecretFlag.Name), cfg)
	if err != nil {
		return fmt.Errorf("dialing execution engine: %w", err)
	}

	genesisRef := cfg.GenesisBlockRef()
	state := enginestate.New(genesisRef)
	forkchoiceTask := enginestate.NewForkchoiceTask(engine)
	buildMetrics := buildtask.NewPrometheusMetrics(registry)
	derivationMetrics := derivation.NewPrometheusMetrics(registry)

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return fmt.Errorf("constructing derivation pipeline: %w", err)
	}
	derivationState := derivation.New(pipeline, derivationMetrics)

	outbound, attrsIn, resetIn := actor.NewChannels()

	// l1Head and l2SafeHead are published by the L1 chain watcher and the
	// engine's safe-head poller respectively; both are external
	// collaborators not built in this core, so nothing Sends on these
	// watches here. elSyncComplete fires once the EL reports initial sync
	// done, from the same collaborator.
	l1Head := watch.New(eth.BlockInfo{})
	l2SafeHead := watch.New(genesisRef)
	elSyncComplete := make(chan struct{})
	derivationSignal := make(chan derivation.Signal, 1)

	inbound := actor.Inbound{
		L1HeadUpdates:    l1Head.Subscribe(),
		L2SafeHead:       l2SafeHead.Subscribe(),
		ElSyncComplete:   elSyncComplete,
		DerivationSignal: derivationSignal,
	}
	derivationActor := actor.New(derivationState, inbound, outbound)

	go func() {
		if err := derivationActor.Start(ctx); err != nil {
			log.WithError(err).Error("derivation actor terminated")
			cancel()
		}
	}()

	go consumeResets(ctx, resetIn)
	go buildLoop(ctx, attrsIn, engine, cfg, forkchoiceTask, state, buildMetrics, derivationSignal)

	if addr := cliCtx.String(metricsAddrFlag.Name); addr != "" {
		go serveMetrics(addr, registry)
	}

	<-ctx.Done()
	log.Info("rollup-node shutting down")
	return nil
}

// dialEngine constructs an Engine API client over an authenticated HTTP
// transport. jwtSecretPath names a file holding the 32-byte hex secret
// shared with the execution engine.
func dialEngine(ctx context.Context, endpoint, jwtSecretPath string, cfg *rollup.Config) (*engineapi.Client, error) {
	secret, err := readJWTSecret(jwtSecretPath)
	if err != nil {
		return nil, fmt.Errorf("reading engine api jwt secret: %w", err)
	}
	transport, err := engineapi.DialHTTPTransport(ctx, endpoint, secret)
	if err != nil {
		return nil, err
	}
	return engineapi.NewClient(transport, cfg), nil
}

// newPipeline constructs the derivation pipeline the Derivation State steps.
// Its internals - batch decoding, channel and frame reassembly, L1 data
// fetching - are an external collaborator this core does not implement;
// wiring a real pipeline here is the execution client integration's job.
func newPipeline(cfg *rollup.Config) (derivation.Pipeline, error) {
	return nil, errors.New("derivation pipeline is an external collaborator; none wired in this build")
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.WithField("addr", addr).Info("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics server exited")
	}
}

// buildLoop forwards attributes produced by derivation into successive
// Build Task runs against the shared EngineState. A successful deposits-only
// re-attempt is signaled upstream to derivation as a flush request.
func buildLoop(
	ctx context.Context,
	attrsIn <-chan eth.OpAttributesWithParent,
	engine buildtask.Engine,
	cfg *rollup.Config,
	forkchoice buildtask.Forkchoice,
	state *enginestate.State,
	metrics buildtask.Metrics,
	signalOut chan<- derivation.Signal,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case attrs := <-attrsIn:
			task := buildtask.New(engine, cfg, attrs, nil, forkchoice, metrics)
			_, err := task.Execute(ctx, state)
			handleBuildResult(err, signalOut)
		}
	}
}

// handleBuildResult classifies a Build Task result: a recovered Holocene
// deposits-only flush signals derivation upstream to drop its buffered
// batches; any other error is logged as a failed build.
func handleBuildResult(err error, signalOut chan<- derivation.Signal) {
	if err == nil {
		return
	}
	if errors.Is(err, buildtask.ErrHoloceneInvalidFlush) {
		log.Warn("holocene deposits-only fallback applied, sending flush signal upstream")
		select {
		case signalOut <- derivation.Signal{Kind: derivation.SignalFlushChannel}:
		default:
			log.Warn("derivation signal channel full, dropping flush signal")
		}
		return
	}
	log.WithError(err).Error("build task failed")
}

func consumeResets(ctx context.Context, resetIn <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-resetIn:
			log.Warn("reset requested by derivation; reset wiring to the engine controller is an external collaborator")
		}
	}
}

// readJWTSecret reads and hex-decodes the Engine API shared secret, which
// may be a plain 64-character hex string or 0x-prefixed.
func readJWTSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"))
	secret, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, err
	}
	return secret, nil
}
