package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	rest "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/telekom/k8s-leaselock/pkg/api"
	"github.com/telekom/k8s-leaselock/pkg/config"
	"github.com/telekom/k8s-leaselock/pkg/election"
	"github.com/telekom/k8s-leaselock/pkg/identity"
	"github.com/telekom/k8s-leaselock/pkg/lease"
	"github.com/telekom/k8s-leaselock/pkg/system"
	"github.com/telekom/k8s-leaselock/pkg/telemetry"
)

func main() {
	var debug bool
	var configPath string
	var kubeconfig string
	flag.BoolVar(&debug, "debug", false, "enables debug mode")
	flag.StringVar(&configPath, "config", "", "path to the config file (default ./config.yaml)")
	flag.StringVar(&kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "path to a kubeconfig file, for running outside the cluster")
	flag.Parse()

	log := setupLogger(debug)
	// Route client-go's klog output through the structured logger.
	klog.SetLogger(zapr.NewLogger(log.Desugar()))
	log.With("version", system.Version).Info("Starting leaselock")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading config for leaselock: %v", err)
	}
	cfg.Defaults()
	if cfg.Election.LeaseNamespace == "" {
		cfg.Election.LeaseNamespace = identity.Namespace()
	}
	if cfg.Election.Identity == "" {
		cfg.Election.Identity = identity.New(log)
	}

	if debug {
		log.Infof("%#v", cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceVersion: system.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		Logger:         log,
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}

	leaseDuration := time.Duration(cfg.Election.LeaseDurationSeconds) * time.Second
	store, err := buildStore(cfg, kubeconfig, leaseDuration, log)
	if err != nil {
		log.Fatalf("Error building lease store: %v", err)
	}

	elector, err := election.New(election.Config{
		Identity:      cfg.Election.Identity,
		LeaseDuration: leaseDuration,
		RenewDeadline: time.Duration(cfg.Election.RenewDeadlineSeconds) * time.Second,
		RetryPeriod:   time.Duration(cfg.Election.RetryPeriodSeconds) * time.Second,
		MaxRetries:    cfg.Election.MaxRetries,
	}, store, log)
	if err != nil {
		log.Fatalf("Error creating elector: %v", err)
	}

	err = elector.Start(ctx, election.Callbacks{
		OnElected: func(context.Context) {
			log.Infow("This replica is now the leader", system.ElectionFields(cfg.Election.Identity, true)...)
		},
		OnLost: func(context.Context) {
			log.Infow("This replica lost leadership", system.ElectionFields(cfg.Election.Identity, false)...)
		},
	})
	if err != nil {
		log.Fatalf("Error starting leader election: %v", err)
	}

	server := api.NewServer(log.Desugar(), cfg, debug)
	err = server.RegisterAll([]api.APIController{
		api.NewElectionController(log, cfg, elector),
	})
	if err != nil {
		log.Fatalf("Error registering leaselock controllers: %v", err)
	}

	go server.Listen()

	<-ctx.Done()
	elector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("Error shutting down tracing", "error", err)
	}
}

func buildStore(cfg config.Config, kubeconfig string, leaseDuration time.Duration, log *zap.SugaredLogger) (lease.Store, error) {
	switch cfg.Election.Backend {
	case config.BackendMemory:
		log.Warnw("Using in-memory lease store; leadership is not coordinated across processes")
		return lease.NewMemoryStore(cfg.Election.LeaseName, cfg.Election.LeaseNamespace, leaseDuration, log), nil
	case config.BackendKubernetes:
		restCfg, err := buildRestConfig(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("building Kubernetes client config: %w", err)
		}
		client, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, fmt.Errorf("creating Kubernetes client: %w", err)
		}
		return lease.NewKubeStore(client, cfg.Election.LeaseName, cfg.Election.LeaseNamespace, leaseDuration, log), nil
	default:
		return nil, fmt.Errorf("unknown lease backend %q", cfg.Election.Backend)
	}
}

func buildRestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		// get access to service account token
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

func setupLogger(debug bool) *zap.SugaredLogger {
	var zlog *zap.Logger
	var err error
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return zlog.Sugar()
}
