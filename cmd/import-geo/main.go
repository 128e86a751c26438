// Command import-geo loads the Census gazetteer into the place search
// database so the form can fill coordinates from a town name or ZIP code.
package main

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/swelljoe/wthr-daily/internal/config"
	"github.com/swelljoe/wthr-daily/internal/db"
)

const (
	placesURL = "https://www2.census.gov/geo/docs/maps-data/data/gazetteer/2023_Gazetteer/2023_Gaz_place_national.zip"
	zctasURL  = "https://www2.census.gov/geo/docs/maps-data/data/gazetteer/2023_Gazetteer/2023_Gaz_zcta_national.zip"
)

type dataset struct {
	name     string
	url      string
	importer importFunc
}

var datasets = []dataset{
	{name: "places", url: placesURL, importer: importPlaces},
	{name: "zctas", url: zctasURL, importer: importZCTAs},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Geo.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer database.Close()

	// Downloads run in parallel; SQLite takes one writer, so imports do not.
	g, gctx := errgroup.WithContext(ctx)
	for _, ds := range datasets {
		g.Go(func() error {
			return fetchDataset(gctx, logger, cfg.Geo.DataDir, ds)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ds := range datasets {
		if err := processDataset(logger, database.DB, cfg.Geo.DataDir, ds); err != nil {
			return fmt.Errorf("failed to process %s: %w", ds.name, err)
		}
	}
	return nil
}

type importFunc func(*slog.Logger, *sql.DB, io.Reader) (int, error)

func zipPath(dataDir string, ds dataset) string {
	return filepath.Join(dataDir, ds.name+".zip")
}

// fetchDataset downloads the archive unless a previous run left it behind.
func fetchDataset(ctx context.Context, logger *slog.Logger, dataDir string, ds dataset) error {
	path := zipPath(dataDir, ds)
	if _, err := os.Stat(path); err == nil {
		logger.Info("using existing archive", "dataset", ds.name, "path", path)
		return nil
	}

	logger.Info("downloading", "dataset", ds.name, "url", ds.url)
	if err := downloadFile(ctx, ds.url, path); err != nil {
		return fmt.Errorf("download %s: %w", ds.name, err)
	}
	return nil
}

func processDataset(logger *slog.Logger, database *sql.DB, dataDir string, ds dataset) error {
	path := zipPath(dataDir, ds)
	logger.Info("processing", "dataset", ds.name)

	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		count, err := ds.importer(logger, database, rc)
		if err != nil {
			return err
		}
		logger.Info("finished import", "dataset", ds.name, "rows", count)
		return nil
	}
	return fmt.Errorf("no txt file found in %s", path)
}

// downloadFile writes url to path, removing the partial file on failure.
func downloadFile(ctx context.Context, url, path string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	_, err = io.Copy(out, resp.Body)
	return err
}

// importRows reads a tab-separated gazetteer file, skipping the header and
// any malformed line, and inserts what toPlace accepts in one transaction.
func importRows(logger *slog.Logger, database *sql.DB, r io.Reader, minFields int, toPlace func([]string) (db.Place, error)) (int, error) {
	tx, err := database.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO places (name, state, zip, latitude, longitude) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil || len(record) < minFields {
			continue
		}

		p, err := toPlace(record)
		if err != nil {
			logger.Warn("skipping row", "error", err)
			continue
		}

		if _, err := stmt.Exec(p.Name, p.State, p.Zip, p.Latitude, p.Longitude); err != nil {
			logger.Warn("insert failed", "name", p.Name, "error", err)
			continue
		}
		count++
		if count%10000 == 0 {
			logger.Debug("import progress", "rows", count)
		}
	}

	return count, tx.Commit()
}

// importPlaces reads 2023_Gaz_place_national.txt:
// USPS(0) GEOID(1) ANSICODE(2) NAME(3) LSAD(4) FUNCSTAT(5) ALAND(6) AWATER(7) ALAND_SQMI(8) AWATER_SQMI(9) INTPTLAT(10) INTPTLONG(11)
func importPlaces(logger *slog.Logger, database *sql.DB, r io.Reader) (int, error) {
	return importRows(logger, database, r, 12, func(record []string) (db.Place, error) {
		name := cleanPlaceName(strings.TrimSpace(record[3]))
		lat, lon, err := parseAndValidateCoordinates(strings.TrimSpace(record[10]), strings.TrimSpace(record[11]))
		if err != nil {
			return db.Place{}, fmt.Errorf("place %s: %w", name, err)
		}
		return db.Place{
			Name:      name,
			State:     strings.TrimSpace(record[0]),
			Latitude:  lat,
			Longitude: lon,
		}, nil
	})
}

// importZCTAs reads 2023_Gaz_zcta_national.txt:
// GEOID(0) ALAND(1) AWATER(2) ALAND_SQMI(3) AWATER_SQMI(4) INTPTLAT(5) INTPTLONG(6)
func importZCTAs(logger *slog.Logger, database *sql.DB, r io.Reader) (int, error) {
	return importRows(logger, database, r, 7, func(record []string) (db.Place, error) {
		zipCode := strings.TrimSpace(record[0])
		lat, lon, err := parseAndValidateCoordinates(strings.TrimSpace(record[5]), strings.TrimSpace(record[6]))
		if err != nil {
			return db.Place{}, fmt.Errorf("ZIP %s: %w", zipCode, err)
		}
		return db.Place{
			Name:      zipCode,
			Zip:       zipCode,
			Latitude:  lat,
			Longitude: lon,
		}, nil
	})
}

func cleanPlaceName(name string) string {
	suffixes := []string{" city", " town", " village", " CDP", " borough"}
	for _, s := range suffixes {
		if trimmed, ok := strings.CutSuffix(name, s); ok {
			return trimmed
		}
	}
	return name
}

// parseAndValidateCoordinates parses and range-checks a coordinate pair.
func parseAndValidateCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %f", lat)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %f", lon)
	}

	return lat, lon, nil
}
