package api

import (
	"log/slog"

	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
	"github.com/AmartiSamia/deploykit/pkg/logging"
	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
	"github.com/AmartiSamia/deploykit/pkg/publish"
	"github.com/AmartiSamia/deploykit/pkg/server"
)

const name = "deploykitd"

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/AmartiSamia/deploykit/pkg/api.version=1.0.0"
	version = "dev"
)

// Serve starts the deployment API server and blocks until shutdown. It
// wires the orchestrator to the cluster, the local Docker engine, and
// environment registry credentials.
func Serve() error {
	logging.SetDefaultStructuredLogger(name, version)

	cfg := server.DefaultConfig()

	clientset, _, err := client.BuildKubeClient(cfg.Kubeconfig)
	if err != nil {
		slog.Error("failed to build cluster client", "error", err)
		return err
	}

	engine, err := publish.NewDockerEngine()
	if err != nil {
		slog.Error("failed to connect to container engine", "error", err)
		return err
	}

	o := orchestrator.New(clientset,
		orchestrator.WithPublisher(publish.New(engine, creds.NewEnvStore())))

	if err := server.Run(cfg, o); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
