package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/pipeline"
)

// newConvertCmd creates the convert command, which runs only the PDF to SVG
// stage. Useful for inspecting what the extractor will see.
func newConvertCmd(configPath *string) *cobra.Command {
	var (
		output  string
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a chart PDF to plain SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0], output, *configPath, refresh, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with .svg)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reconvert even when the cache has an entry")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the conversion cache")

	return cmd
}

func runConvert(ctx context.Context, input, output, cfgPath string, refresh, noCache bool) error {
	logger := loggerFromContext(ctx)

	runner, _, _, err := newRunner(cfgPath, noCache, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	svg, hit, err := runner.ConvertWithCacheInfo(ctx, pipeline.Options{
		Input:   input,
		Refresh: refresh,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	if err := os.WriteFile(output, svg, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}

	printSuccess("%s", input)
	printFile(output)
	printConversion(len(svg), hit)
	printNextStep("Extract it", "ekgstore extract "+output)
	return nil
}
