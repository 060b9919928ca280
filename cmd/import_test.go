package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/rolocard/enrich-cli/internal/model"
)

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().Value = v
		}
	}

	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadContactsXLSX(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{
		{"Name", "Email", "Company", "Notes"},
		{"Jane Doe", "jane@example.com", "Acme", "met at gophercon"},
		{"", "", "", ""},
		{"John Roe", "", "Initech", ""},
	})

	contacts, err := readContactsXLSX(path, "user-1")
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	jane := contacts[0]
	assert.Equal(t, "user-1", jane.OwnerUserID)
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, "jane@example.com", jane.Email)
	assert.Equal(t, "Acme", jane.Company)
	assert.Equal(t, "met at gophercon", jane.Notes)
	assert.Greater(t, jane.ConfidenceScore, 0.5)

	require.Len(t, jane.EnrichedData.Sources, 1)
	assert.Equal(t, model.SourceDocument, jane.EnrichedData.Sources[0].Source)
	assert.Equal(t, path, jane.EnrichedData.Sources[0].URL)

	assert.Equal(t, "John Roe", contacts[1].Name)
}

func TestReadContactsXLSX_MissingNameColumn(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{
		{"Email", "Company"},
		{"jane@example.com", "Acme"},
	})

	_, err := readContactsXLSX(path, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name column")
}

func TestReadContactsXLSX_UnknownColumnsIgnored(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{
		{"name", "favorite_color", "title"},
		{"Jane Doe", "teal", "Engineer"},
	})

	contacts, err := readContactsXLSX(path, "user-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Engineer", contacts[0].Title)
}

func TestReadContactsXLSX_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := readContactsXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), "user-1")
	require.Error(t, err)
}
