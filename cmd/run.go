package main

import (
	"encoding/json"
	"mime"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rolocard/enrich-cli/internal/model"
)

var (
	runFile  string
	runOwner string
	runMime  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a single document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(runFile)
		if err != nil {
			return eris.Wrapf(err, "read document %s", runFile)
		}

		mimeType := runMime
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(runFile))
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		outcome, err := env.Pipeline.Run(ctx, runOwner, model.Document{
			Name:     filepath.Base(runFile),
			MimeType: mimeType,
			Data:     data,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFile, "file", "", "document to process (required)")
	runCmd.Flags().StringVar(&runOwner, "owner", "", "owner user id (required)")
	runCmd.Flags().StringVar(&runMime, "mime", "", "MIME type override (default from file extension)")
	_ = runCmd.MarkFlagRequired("file")
	_ = runCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(runCmd)
}
