package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Load, chunk and embed documents into the persisted index",
		Long: "Reads .txt, .md and .pdf files from the given files, directories or globs\n" +
			"(default: ingest.data_path), splits them into overlapping chunks and\n" +
			"replaces the index at store.path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = []string{a.cfg.Ingest.DataPath}
			}
			ingestor, err := a.newIngestor()
			if err != nil {
				return err
			}
			a.log.Info("ingesting", zap.Strings("paths", paths), zap.String("store", a.cfg.Store.Path))
			report, err := ingestor.Ingest(cmd.Context(), paths)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			w := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprint(w, "Index ready: ")
			fmt.Fprintf(w, "%d documents, %d chunks, model %s, dimension %d\n",
				report.Documents, report.Chunks, report.Index.Model(), report.Index.Dimension())
			return nil
		},
	}
}
