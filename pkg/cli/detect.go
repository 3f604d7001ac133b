package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/serializer"
)

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "detect",
		EnableShellCompletion: true,
		Usage:                 "Detect the project kind of a local source tree",
		Description: `Inspect a source tree and report how it would be containerized:
  node    package.json present
  jvm     pom.xml or build.gradle present
  python  requirements.txt present
  static  anything else

Marker files are checked in that order; the first match wins.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Source tree to inspect",
				Value: ".",
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := serializer.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			kind := detect.Detect(cmd.String("path"))
			report := struct {
				Path     string      `json:"path" yaml:"path"`
				Kind     detect.Kind `json:"kind" yaml:"kind"`
				Port     int32       `json:"port" yaml:"port"`
				Prebuild bool        `json:"prebuild" yaml:"prebuild"`
			}{
				Path:     cmd.String("path"),
				Kind:     kind,
				Port:     kind.Port(),
				Prebuild: kind.NeedsPrebuild(),
			}

			return serializer.NewWriter(format, os.Stdout).Write(report)
		},
	}
}
