package cli

import (
	"context"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/AmartiSamia/deploykit/pkg/serializer"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Flags: []cli.Flag{
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := serializer.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			info := struct {
				Name      string `json:"name" yaml:"name"`
				Version   string `json:"version" yaml:"version"`
				Commit    string `json:"commit" yaml:"commit"`
				Date      string `json:"date" yaml:"date"`
				GoVersion string `json:"goVersion" yaml:"goVersion"`
			}{
				Name:      name,
				Version:   version,
				Commit:    commit,
				Date:      date,
				GoVersion: runtime.Version(),
			}

			return serializer.NewWriter(format, os.Stdout).Write(info)
		},
	}
}
