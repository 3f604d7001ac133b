package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/AmartiSamia/deploykit/pkg/creds"
	"github.com/AmartiSamia/deploykit/pkg/k8s/client"
	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
	"github.com/AmartiSamia/deploykit/pkg/params"
	"github.com/AmartiSamia/deploykit/pkg/publish"
	"github.com/AmartiSamia/deploykit/pkg/serializer"
)

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:                  "deploy",
		EnableShellCompletion: true,
		Usage:                 "Run the full pipeline: checkout, build, publish, deploy, verify",
		Description: `Deploy an application from a git repository to Kubernetes:
  1. Check out the repository (falling back to main, then master)
  2. Detect the project kind (node, jvm, python, static)
  3. Generate a Dockerfile when the repository has none
  4. Run the kind-specific prebuild (mvn package for JVM projects)
  5. Build and push the container image (build-number tag plus latest)
  6. Apply namespace, registry secret, deployment, service, and ingress
  7. Wait for rollout and verify the published endpoint

Registry credentials are read from DEPLOYKIT_REGISTRY_USERNAME and
DEPLOYKIT_REGISTRY_PASSWORD. The result is reported in JSON, YAML, or
table format.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "repo",
				Usage:    "Git repository URL to deploy",
				Sources:  cli.EnvVars("DEPLOYKIT_REPO_URL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "project",
				Usage:    "Project name, used for image, namespace, and ingress host",
				Sources:  cli.EnvVars("DEPLOYKIT_PROJECT"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "branch",
				Usage:   "Preferred branch to check out",
				Sources: cli.EnvVars("DEPLOYKIT_BRANCH"),
				Value:   params.DefaultBranch,
			},
			&cli.StringFlag{
				Name:    "image",
				Usage:   "Image repository name (defaults to the project name)",
				Sources: cli.EnvVars("DEPLOYKIT_IMAGE_NAME"),
			},
			&cli.StringFlag{
				Name:    "build-number",
				Usage:   "Build number used as the image tag",
				Sources: cli.EnvVars("DEPLOYKIT_BUILD_NUMBER", "BUILD_NUMBER"),
			},
			&cli.StringFlag{
				Name:    "registry",
				Usage:   "Container registry host",
				Sources: cli.EnvVars("DEPLOYKIT_REGISTRY"),
				Value:   params.DefaultRegistry,
			},
			&cli.StringFlag{
				Name:    "ingress-domain",
				Usage:   "Domain under which the application is exposed",
				Sources: cli.EnvVars("DEPLOYKIT_INGRESS_DOMAIN"),
				Value:   params.DefaultIngressDomain,
			},
			&cli.StringFlag{
				Name:    "kubeconfig",
				Usage:   "Path to the kubeconfig file (default: in-cluster or ~/.kube/config)",
				Sources: cli.EnvVars("KUBECONFIG"),
			},
			&cli.StringFlag{
				Name:    "work-dir",
				Usage:   "Directory for checked out source trees",
				Sources: cli.EnvVars("DEPLOYKIT_WORK_DIR"),
				Value:   os.TempDir(),
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := serializer.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			prm := &params.RunParameters{
				RepoURL:       cmd.String("repo"),
				Project:       cmd.String("project"),
				Branch:        cmd.String("branch"),
				ImageName:     cmd.String("image"),
				BuildNumber:   cmd.String("build-number"),
				Registry:      cmd.String("registry"),
				IngressDomain: cmd.String("ingress-domain"),
				Kubeconfig:    cmd.String("kubeconfig"),
				WorkDir:       cmd.String("work-dir"),
			}

			o, err := buildOrchestrator(prm.Kubeconfig)
			if err != nil {
				return err
			}

			out, err := o.Run(ctx, prm)
			if err != nil {
				return err
			}

			if err := serializer.NewWriter(format, os.Stdout).Write(out); err != nil {
				return err
			}
			if !out.Success {
				return fmt.Errorf("deployment of %q failed at %s stage: %s",
					out.Project, out.FailedStage, out.Error)
			}
			return nil
		},
	}
}

func buildOrchestrator(kubeconfig string) (*orchestrator.Orchestrator, error) {
	clientset, _, err := client.BuildKubeClient(kubeconfig)
	if err != nil {
		return nil, err
	}
	engine, err := publish.NewDockerEngine()
	if err != nil {
		return nil, err
	}
	pub := publish.New(engine, creds.NewEnvStore())
	return orchestrator.New(clientset, orchestrator.WithPublisher(pub)), nil
}
