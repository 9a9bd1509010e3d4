package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/educates/lookup-service/internal/auth"
	"github.com/educates/lookup-service/internal/broker"
	"github.com/educates/lookup-service/internal/cache"
	"github.com/educates/lookup-service/internal/portal"
	"github.com/educates/lookup-service/internal/server"
	"github.com/educates/lookup-service/internal/watcher"
	"github.com/educates/lookup-service/pkg/config"
)

type ServiceOpts struct {
	port            int
	issuer          string
	tokenSecret     string
	tokenSecretFile string
	kubeconfig      string
	verbose         bool
}

func NewRootCmd() *cobra.Command {
	opts := &ServiceOpts{}
	rootCmd := &cobra.Command{
		Use:   "lookup-service",
		Args:  cobra.NoArgs,
		Short: "Serve the workshop lookup service",
		Long: `Serve the workshop lookup service

	This command runs the cross-cluster broker for the workshop delivery
	platform. Configuration is mirrored from custom resources on the local
	cluster and training state is mirrored from each managed cluster.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Run()
		},
	}

	rootCmd.Flags().IntVar(&opts.port, "port", 8080, "port to listen on")
	rootCmd.Flags().StringVar(&opts.issuer, "issuer", os.Getenv("TOKEN_ISSUER"), "issuer recorded in session tokens, the service's own base URL")
	rootCmd.Flags().StringVar(&opts.tokenSecret, "token-secret", os.Getenv("TOKEN_SECRET"), "shared secret for signing session tokens")
	rootCmd.Flags().StringVar(&opts.tokenSecretFile, "token-secret-file", "", "file holding the shared secret for signing session tokens")
	rootCmd.Flags().StringVar(&opts.kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "kubeconfig for the local cluster, in-cluster configuration when empty")
	rootCmd.Flags().BoolVar(&opts.verbose, "verbose", false, "enable debug level logging")

	rootCmd.MarkFlagsMutuallyExclusive("token-secret", "token-secret-file")

	return rootCmd
}

func (opts *ServiceOpts) Run() error {
	logger := config.DefaultLogger(opts.verbose)
	logger.Info(fmt.Sprintf("%s (%s) started", server.ProgramName, version()))

	secret := opts.tokenSecret
	if opts.tokenSecretFile != "" {
		data, err := os.ReadFile(opts.tokenSecretFile)
		if err != nil {
			return fmt.Errorf("reading token secret file: %w", err)
		}
		secret = strings.TrimSpace(string(data))
	}
	if secret == "" {
		return fmt.Errorf("a token signing secret is required")
	}

	issuer := opts.issuer
	if issuer == "" {
		issuer = fmt.Sprintf("http://localhost:%d/", opts.port)
	}

	localConfig, err := localRESTConfig(opts.kubeconfig)
	if err != nil {
		return fmt.Errorf("configuring local cluster access: %w", err)
	}

	state := cache.NewServiceState()
	authenticator := auth.NewAuthenticator(issuer, []byte(secret))
	sessionBroker := broker.NewBroker(logger, state, portal.NewClient(nil))

	supervisor := watcher.NewSupervisor(logger, state, localConfig)

	listener, err := net.Listen("tcp4", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return err
	}

	prometheusEmitter := server.NewPrometheusEmitter(server.DefaultRegistry())

	s := server.NewServer(logger, listener, prometheusEmitter, state, authenticator, sessionBroker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchersDone := make(chan struct{})
	go func() {
		defer close(watchersDone)
		if err := supervisor.Run(ctx); err != nil {
			logger.Error("configuration watcher failed", "error", err)
		}
	}()

	stop := make(chan struct{})
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go s.Run(ctx, stop)

	sig := <-signalChannel
	logger.Info(fmt.Sprintf("caught %s signal", sig))
	close(stop)
	cancel()

	s.Join()
	<-watchersDone

	logger.Info(fmt.Sprintf("%s (%s) stopped", server.ProgramName, version()))

	return nil
}

func localRESTConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	return rest.InClusterConfig()
}

func version() string {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				version = setting.Value
				break
			}
		}
	}

	return version
}
