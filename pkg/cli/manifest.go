package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/AmartiSamia/deploykit/pkg/artifact"
	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
	"github.com/AmartiSamia/deploykit/pkg/params"
	"github.com/AmartiSamia/deploykit/pkg/serializer"
)

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:                  "manifest",
		EnableShellCompletion: true,
		Usage:                 "Render the Kubernetes manifests for a project without deploying",
		Description: `Render the namespace, deployment, service, and ingress manifests that a
deploy run would apply, as a multi-document YAML stream. Useful for
review and for GitOps workflows that apply manifests out of band.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "project",
				Usage:    "Project name, used for image, namespace, and ingress host",
				Sources:  cli.EnvVars("DEPLOYKIT_PROJECT"),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Project kind (node, jvm, python, static)",
				Value: string(detect.KindStatic),
			},
			&cli.StringFlag{
				Name:     "image",
				Usage:    "Fully qualified image reference to deploy",
				Required: true,
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
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "File to write the manifests to (default: stdout)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind := detect.Kind(cmd.String("kind"))
			if !kind.IsValid() {
				return errors.Newf(errors.ErrCodeValidation, "invalid project kind: %q", cmd.String("kind"))
			}

			prm := &params.RunParameters{
				// Manifests never reference the repository; any non-empty
				// URL satisfies validation.
				RepoURL:       "local://manifest",
				Project:       cmd.String("project"),
				Registry:      cmd.String("registry"),
				IngressDomain: cmd.String("ingress-domain"),
			}
			if err := prm.Validate(); err != nil {
				return err
			}

			rendered, err := artifact.GenerateManifests(prm, kind, cmd.String("image")).RenderYAML()
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := cmd.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return serializer.NewWriter(serializer.FormatYAML, out).WriteRaw(rendered)
		},
	}
}
