package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/internal/score"
)

var (
	importFile  string
	importOwner string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import contacts from an XLSX sheet",
	Long:  "Reads one contact per row from the first sheet. Recognized header columns: name, email, phone, company, title, location, notes. Imported contacts skip enrichment.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		contacts, err := readContactsXLSX(importFile, importOwner)
		if err != nil {
			return err
		}

		created := 0
		for i := range contacts {
			if err := st.CreateContact(ctx, &contacts[i]); err != nil {
				return eris.Wrapf(err, "import row %d", i+2)
			}
			created++
		}

		zap.L().Info("import complete",
			zap.Int("created", created),
			zap.String("file", importFile),
		)
		return nil
	},
}

// readContactsXLSX parses the first sheet into contacts. The first row
// must be a header; unknown columns are ignored, blank rows skipped.
func readContactsXLSX(path, ownerUserID string) ([]model.Contact, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: empty sheet")
	}

	cols := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		cols[strings.ToLower(strings.TrimSpace(cell.String()))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, eris.New("xlsx: missing name column")
	}

	get := func(row *xlsx.Row, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[i].String())
	}

	var contacts []model.Contact
	for _, row := range sheet.Rows[1:] {
		raw := model.RawProfile{
			Name:     get(row, "name"),
			Email:    get(row, "email"),
			Phone:    get(row, "phone"),
			Company:  get(row, "company"),
			Title:    get(row, "title"),
			Location: get(row, "location"),
		}
		if raw.Name == "" && raw.Email == "" {
			continue
		}

		profile := model.EnrichedProfile{
			Name:     raw.Name,
			Email:    raw.Email,
			Phone:    raw.Phone,
			Company:  raw.Company,
			Title:    raw.Title,
			Location: raw.Location,
			Sources:  []model.SourceRef{{Source: model.SourceDocument, URL: path}},
		}
		profile.ConfidenceScore = score.Score(profile.Sources, profile)

		contacts = append(contacts, model.Contact{
			OwnerUserID:     ownerUserID,
			Name:            raw.Name,
			Email:           raw.Email,
			Phone:           raw.Phone,
			Company:         raw.Company,
			Title:           raw.Title,
			Location:        raw.Location,
			ExtractedData:   raw,
			EnrichedData:    profile,
			ConfidenceScore: profile.ConfidenceScore,
			Notes:           get(row, "notes"),
		})
	}
	return contacts, nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to XLSX file (required)")
	importCmd.Flags().StringVar(&importOwner, "owner", "", "owner user id (required)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}
