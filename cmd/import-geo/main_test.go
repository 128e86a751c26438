package main

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swelljoe/wthr-daily/internal/db"
)

const placesFixture = "USPS\tGEOID\tANSICODE\tNAME\tLSAD\tFUNCSTAT\tALAND\tAWATER\tALAND_SQMI\tAWATER_SQMI\tINTPTLAT\tINTPTLONG\n" +
	"CA\t0666000\t02411782\tSan Diego city\t25\tA\t0\t0\t0\t0\t32.715736\t-117.161087\n" +
	"ID\t1608830\t02409906\tBoise City city\t25\tA\t0\t0\t0\t0\t43.600699\t-116.230453\n" +
	"XX\t0000000\t00000000\tNowhere CDP\t57\tS\t0\t0\t0\t0\t95.0\t10.0\n" +
	"short\trow\n"

const zctaFixture = "GEOID\tALAND\tAWATER\tALAND_SQMI\tAWATER_SQMI\tINTPTLAT\tINTPTLONG\n" +
	"92101\t0\t0\t0\t0\t32.719\t-117.163\n" +
	"83702\t0\t0\t0\t0\t43.630\t-116.205\n" +
	"00000\t0\t0\t0\t0\tnot-a-number\t0\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "geo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestImportPlaces(t *testing.T) {
	database := openTestDB(t)

	count, err := importPlaces(quietLogger(), database.DB, strings.NewReader(placesFixture))
	require.NoError(t, err)
	assert.Equal(t, 2, count, "out-of-range and short rows are skipped")

	places, err := database.SearchPlaces("San")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "San Diego", places[0].Name)
	assert.Equal(t, "CA", places[0].State)
	assert.InDelta(t, 32.715736, places[0].Latitude, 1e-9)

	places, err = database.SearchPlaces("Boise")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Boise City", places[0].Name)
}

func TestImportZCTAs(t *testing.T) {
	database := openTestDB(t)

	count, err := importZCTAs(quietLogger(), database.DB, strings.NewReader(zctaFixture))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	places, err := database.SearchPlaces("921")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "92101", places[0].Zip)
	assert.Empty(t, places[0].State)
}

func TestImportEmptyInput(t *testing.T) {
	database := openTestDB(t)

	_, err := importPlaces(quietLogger(), database.DB, strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}

func TestProcessDataset(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	ds := dataset{name: "zctas", importer: importZCTAs}

	f, err := os.Create(zipPath(dir, ds))
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("2023_Gaz_zcta_national.txt")
	require.NoError(t, err)
	_, err = io.WriteString(w, zctaFixture)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	require.NoError(t, processDataset(quietLogger(), database.DB, dir, ds))

	places, err := database.SearchPlaces("837")
	require.NoError(t, err)
	assert.Len(t, places, 1)
}

func TestFetchDataset(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("archive"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	ds := dataset{name: "places", url: ts.URL}

	require.NoError(t, fetchDataset(context.Background(), quietLogger(), dir, ds))
	data, err := os.ReadFile(zipPath(dir, ds))
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))

	require.NoError(t, fetchDataset(context.Background(), quietLogger(), dir, ds))
	assert.Equal(t, int32(1), hits.Load(), "an existing archive is reused")
}

func TestDownloadFileBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "missing.zip")
	err := downloadFile(context.Background(), ts.URL, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file is left behind")
}

func TestCleanPlaceName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"San Diego city", "San Diego"},
		{"Jackson town", "Jackson"},
		{"Oak Park village", "Oak Park"},
		{"Aspen Hill CDP", "Aspen Hill"},
		{"State College borough", "State College"},
		{"Carson City", "Carson City"},
		{"Nashville-Davidson metropolitan government (balance)", "Nashville-Davidson metropolitan government (balance)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanPlaceName(tt.input))
		})
	}
}

func TestParseAndValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		wantErr string
	}{
		{"valid", "32.7", "-117.1", ""},
		{"bounds", "-90", "180", ""},
		{"bad latitude", "north", "0", "invalid latitude"},
		{"latitude range", "90.1", "0", "latitude out of range"},
		{"bad longitude", "0", "", "invalid longitude"},
		{"longitude range", "0", "-180.5", "longitude out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := parseAndValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, lat)
			assert.NotZero(t, lon)
		})
	}
}
