package handlers

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFleetCSVStartsWithBOMAndHeaders(t *testing.T) {
	db := newTestDB(t)
	seedVehicle(t, db, "أ ب ج 1111")
	seedVehicle(t, db, "د هـ و 2222")

	exporter := NewFleetExporter(db)
	out, err := exporter.ToCSV()
	require.NoError(t, err)

	// Excel needs the UTF-8 BOM up front to render the Arabic headers.
	require.True(t, bytes.HasPrefix(out, []byte("\uFEFF")))

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(out, []byte("\uFEFF"))))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, fleetExportHeaders, records[0])
	require.Equal(t, "أ ب ج 1111", records[1][0])
	require.Equal(t, "د هـ و 2222", records[2][0])
}
