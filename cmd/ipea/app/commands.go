package app

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/gold"
	"github.com/invertedv/ipea/pipeline"
)

type rootOpts struct {
	logLevel string
	envFiles []string

	app *App
}

// NewRootCommand returns the ipea command and its subcommands.
func NewRootCommand(version string) *cobra.Command {
	o := &rootOpts{}

	root := &cobra.Command{
		Use:           "ipea",
		Short:         "Municipal indicators of 2010: fetch, normalize, merge, analyze",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := New(o.logLevel, o.envFiles...)
			if err != nil {
				return err
			}

			a.out = cmd.OutOrStdout()
			o.app = a

			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if o.app == nil {
				return nil
			}

			return o.app.Close()
		},
	}

	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringSliceVar(&o.envFiles, "env-file", DefaultEnvFiles(), "env files to load, in order")

	root.AddCommand(newRunCommand(o), newTransformCommand(o), newMergeCommand(o), newReportCommand(o),
		newSourcesCommand(o))

	return root
}

func newRunCommand(o *rootOpts) *cobra.Command {
	var noAnalysis bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every source from ipeadata, then normalize, merge and analyze",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orc, err := o.app.Orchestrator(ctx, o.app.Client(ctx), !noAnalysis)
			if err != nil {
				return err
			}

			res, err := orc.Run(ctx)
			printSources(cmd.OutOrStdout(), res)

			return err
		},
	}
	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "stop after the merged table")

	return cmd
}

func newTransformCommand(o *rootOpts) *cobra.Command {
	var noAnalysis bool
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rebuild silver, gold and the analysis from the raw tables of an earlier run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orc, err := o.app.Orchestrator(ctx, nil, !noAnalysis)
			if err != nil {
				return err
			}

			res, err := orc.Transform(ctx, o.app.Config().BronzeFolder)
			printSources(cmd.OutOrStdout(), res)

			return err
		},
	}
	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "stop after the merged table")

	return cmd
}

func newMergeCommand(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge the normalized tables of the silver directory and analyze the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orc, err := o.app.Orchestrator(ctx, nil, true)
			if err != nil {
				return err
			}

			res, err := orc.MergeSilver(ctx, o.app.Config().SilverFolder)
			printSources(cmd.OutOrStdout(), res)

			return err
		},
	}
}

func newReportCommand(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Analyze the merged table of the gold directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileName := filepath.Join(o.app.Config().GoldFolder, gold.FileName)
			tbl, err := d.NewFiles().Load(fileName)
			if err != nil {
				return fmt.Errorf("read %s: %w", fileName, err)
			}

			_, err = o.app.Analyzer(o.app.Files()).Run(cmd.Context(), tbl)

			return err
		},
	}
}

func newSourcesCommand(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Print the source manifest in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := o.app.Sources()
			if err != nil {
				return err
			}

			body, err := pipeline.MarshalSources(sources)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(body)

			return err
		},
	}
}

func printSources(w io.Writer, res *pipeline.Result) {
	if res == nil || len(res.Sources) == 0 {
		return
	}

	table := tablewriter.NewTable(w)
	table.Header("source", "raw rows", "rows", "error")
	for _, s := range res.Sources {
		msg := ""
		if s.Err != nil {
			msg = s.Err.Error()
		}

		_ = table.Append(string(s.ID), s.RawRows, s.Rows, msg)
	}
	_ = table.Render()

	if res.Merged != nil {
		_, _ = fmt.Fprintf(w, "run %s: %d municipalities\n", res.RunID, res.Merged.RowCount())
	}
}
