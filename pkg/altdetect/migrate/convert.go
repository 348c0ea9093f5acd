package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// ErrSameBackend is returned when converting between two stores of the same
// backend type.
var ErrSameBackend = errors.New("source and destination use the same backend")

// Result summarizes an import.
type Result struct {
	Identities int // identities written
	Sightings  int // sightings written
	Failed     int // entries that could not be parsed or written
}

// OK reports whether every entry was imported.
func (r Result) OK() bool {
	return r.Failed == 0
}

// Convert copies every identity and sighting from src into dst. Sightings
// are skipped when any identity failed, since they would reference missing
// identities. The returned error joins every per-row failure.
func Convert(ctx context.Context, src, dst altdetect.Store) (Result, error) {
	logger := slog.Default().With("component", "altdetect.migrate")

	if src.Backend() == dst.Backend() {
		return Result{}, fmt.Errorf("%w: %s", ErrSameBackend, src.Backend())
	}

	logger.Info("converting database", "from", src.Backend(), "to", dst.Backend())

	identities, err := src.ExportIdentities(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to export identities: %w", err)
	}

	var res Result
	var errs []error

	for _, row := range identities {
		if err := ctx.Err(); err != nil {
			return res, errors.Join(append(errs, err)...)
		}
		if err := dst.UpsertIdentity(ctx, row.DisplayName, row.StableID); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("identity %s: %w", row.StableID, err))
			continue
		}
		res.Identities++
	}

	if len(errs) > 0 {
		logger.Warn("identity conversion incomplete, sightings skipped",
			"identities", res.Identities,
			"failed", res.Failed,
		)
		return res, errors.Join(errs...)
	}

	sightings, err := src.ExportSightings(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to export sightings: %w", err)
	}

	for _, row := range sightings {
		if err := ctx.Err(); err != nil {
			return res, errors.Join(append(errs, err)...)
		}
		if err := dst.RecordSightingAt(ctx, row.IPAddress, row.StableID, row.Time()); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("sighting %s/%s: %w", row.IPAddress, row.StableID, err))
			continue
		}
		res.Sightings++
	}

	logger.Info("database conversion finished",
		"identities", res.Identities,
		"sightings", res.Sightings,
		"failed", res.Failed,
	)

	return res, errors.Join(errs...)
}

// ImportLegacy writes parsed legacy records into dst. Each stable ID is
// upserted once with the name from its most recent record; every record is
// then replayed as a sighting with its original timestamp.
func ImportLegacy(ctx context.Context, records []LegacyRecord, dst altdetect.Store) (Result, error) {
	logger := slog.Default().With("component", "altdetect.migrate")

	latest := latestNames(records)
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var res Result
	var errs []error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, errors.Join(append(errs, err)...)
		}
		if err := dst.UpsertIdentity(ctx, latest[id].Name, id); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("identity %s: %w", id, err))
			continue
		}
		res.Identities++
	}

	if len(errs) > 0 {
		logger.Warn("legacy identity import incomplete, sightings skipped",
			"identities", res.Identities,
			"failed", res.Failed,
		)
		return res, errors.Join(errs...)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, errors.Join(append(errs, err)...)
		}
		if err := dst.RecordSightingAt(ctx, rec.IPAddress, rec.StableID, rec.SeenAt); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("sighting %s/%s: %w", rec.IPAddress, rec.StableID, err))
			continue
		}
		res.Sightings++
	}

	return res, errors.Join(errs...)
}

// ImportLegacyFile parses the legacy file at path and imports it into dst.
// Malformed entries count as failures but do not stop the import.
func ImportLegacyFile(ctx context.Context, path string, dst altdetect.Store) (Result, error) {
	logger := slog.Default().With("component", "altdetect.migrate")

	records, malformed, err := ReadLegacyFile(path)
	if err != nil {
		return Result{}, err
	}
	for _, m := range malformed {
		logger.Warn("skipping legacy entry", "error", m)
	}

	logger.Info("importing legacy file",
		"path", path,
		"records", len(records),
		"malformed", len(malformed),
	)

	res, err := ImportLegacy(ctx, records, dst)
	res.Failed += len(malformed)

	logger.Info("legacy import finished",
		"identities", res.Identities,
		"sightings", res.Sightings,
		"failed", res.Failed,
	)

	return res, errors.Join(append(malformed, err)...)
}
