package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	"github.com/kailas-cloud/textset/internal/spreadsheet"
)

func newIngestCmd(factory IngesterFactory, configPath *string) *cobra.Command {
	var owner, textSet, contentType string

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingest a spreadsheet into a text set",
		Long: `Runs the upload pipeline against the configured store without the HTTP layer.
The owner must own the text set. The content type is inferred from the file
extension unless --content-type is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("--owner must be a UUID: %w", err)
			}
			textSetID, err := uuid.Parse(textSet)
			if err != nil {
				return fmt.Errorf("--text-set must be a UUID: %w", err)
			}

			path := args[0]
			data, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			ct := contentType
			if ct == "" {
				ct = spreadsheet.ContentTypeFor(path)
			}

			ctx := cmd.Context()
			ingester, release, err := factory(ctx, *configPath)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer release()

			summary, err := ingester.Ingest(ctx, domingest.Request{
				OwnerID:     ownerID,
				TextSetID:   textSetID,
				FileName:    filepath.Base(path),
				ContentType: ct,
				Data:        data,
			})
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			cmd.Printf("Inserted %d items from %d rows (%d skipped).\n",
				summary.InsertedCount, summary.TotalRows, summary.SkippedRows)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner user id (UUID)")
	cmd.Flags().StringVar(&textSet, "text-set", "", "Target text set id (UUID)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Override the content type inferred from the extension")
	mustMarkRequired(cmd, "owner", "text-set")
	return cmd
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		if err := cmd.MarkFlagRequired(n); err != nil {
			panic(errors.Join(fmt.Errorf("flag %s", n), err))
		}
	}
}
