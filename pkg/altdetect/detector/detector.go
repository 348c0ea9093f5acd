package detector

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
)

// Config is the runtime-adjustable part of a Detector.
type Config struct {
	// Window is how far back sightings count towards a correlation.
	Window time.Duration

	Join    altdetect.JoinMessages
	Command altdetect.CommandMessages
}

// Event is a player join as read from the event stream.
type Event struct {
	StableID string `json:"id"`
	IP       string `json:"ip"`
	Name     string `json:"name"`
}

// Notice is emitted for a join whose player has alts.
type Notice struct {
	Name    string   `json:"name"`
	Alts    []string `json:"alts"`
	Message string   `json:"message"`
}

// Report is the result of a lookup by name.
type Report struct {
	Name     string   `json:"name"`
	StableID string   `json:"stable_id,omitempty"`
	Found    bool     `json:"found"`
	Alts     []string `json:"alts"`
	Message  string   `json:"message"`
}

// Detector correlates joining players with their alts.
type Detector struct {
	store  altdetect.Store
	logger *slog.Logger

	mu  sync.RWMutex
	cfg Config
}

// New creates a Detector backed by store.
func New(store altdetect.Store, cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		store:  store,
		logger: logger.With("component", "altdetect.detector"),
		cfg:    cfg,
	}
}

// Update replaces the window and templates used by subsequent calls.
func (d *Detector) Update(cfg Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

func (d *Detector) settings() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// OnJoin records the event and returns a notice when the player has alts
// within the window. A nil notice with a nil error means no alts.
func (d *Detector) OnJoin(ctx context.Context, ev Event) (*Notice, error) {
	if ev.StableID == "" {
		return nil, altdetect.NewInvalidArgumentError("id", "must not be empty")
	}
	if ev.Name == "" {
		return nil, altdetect.NewInvalidArgumentError("name", "must not be empty")
	}
	ip := NormalizeIP(ev.IP)
	if ip == "" {
		return nil, altdetect.NewInvalidArgumentError("ip", "must not be empty")
	}

	cfg := d.settings()

	if err := d.store.UpsertIdentity(ctx, ev.Name, ev.StableID); err != nil {
		return nil, err
	}
	if err := d.store.RecordSighting(ctx, ip, ev.StableID); err != nil {
		return nil, err
	}

	alts, err := d.store.FindCorrelatedNames(ctx, ev.StableID, ev.StableID, cfg.Window)
	if err != nil {
		return nil, err
	}
	if len(alts) == 0 {
		return nil, nil
	}

	summary := storage.RenderAltSummary(ev.Name, alts, cfg.Join.Templates)
	d.logger.Info(summary)

	return &Notice{
		Name:    ev.Name,
		Alts:    alts,
		Message: cfg.Join.Prefix + summary,
	}, nil
}

// Lookup resolves name to its most recently seen identity and reports its
// alts. An unknown name is not an error; the report says so.
func (d *Detector) Lookup(ctx context.Context, name string) (*Report, error) {
	cfg := d.settings()

	identity, err := d.store.LookupMostRecentByName(ctx, name)
	if errors.Is(err, altdetect.ErrNotFound) {
		return &Report{
			Name:    name,
			Alts:    []string{},
			Message: storage.FormatMessage(cfg.Command.PlayerNotFound, name),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	report := &Report{
		Name:     identity.DisplayName,
		StableID: identity.StableID,
		Found:    true,
		Alts:     []string{},
	}

	alts, err := d.store.FindCorrelatedNames(ctx, identity.StableID, identity.StableID, cfg.Window)
	if err != nil {
		return nil, err
	}
	if len(alts) == 0 {
		report.Message = storage.FormatMessage(cfg.Command.PlayerNoAlts, identity.DisplayName)
		return report, nil
	}
	report.Alts = alts
	report.Message = storage.RenderAltSummary(identity.DisplayName, alts, cfg.Command.Templates)
	return report, nil
}

// LookupAll reports every name in names that has alts, in order. When none
// do, the single NoAlts message is returned.
func (d *Detector) LookupAll(ctx context.Context, names []string) ([]string, error) {
	var lines []string
	for _, name := range names {
		report, err := d.Lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(report.Alts) > 0 {
			lines = append(lines, report.Message)
		}
	}
	if len(lines) == 0 {
		return []string{d.settings().Command.NoAlts}, nil
	}
	return lines, nil
}

// Delete removes every identity named name and returns the reply for the
// operator.
func (d *Detector) Delete(ctx context.Context, name string) (string, error) {
	cfg := d.settings()

	removed, err := d.store.PurgeByName(ctx, name)
	if err != nil {
		return "", err
	}

	switch removed {
	case 0:
		return storage.FormatMessage(cfg.Command.PlayerNotFound, name), nil
	case 1:
		return storage.FormatMessage(cfg.Command.RemovedSingular, "1"), nil
	default:
		return storage.FormatMessage(cfg.Command.RemovedPlural, strconv.FormatInt(removed, 10)), nil
	}
}

// NormalizeIP lower-cases addr and strips any port and IPv6 zone, so the
// same host always maps to the same sighting key.
func NormalizeIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	if i := strings.IndexByte(addr, '%'); i >= 0 {
		addr = addr[:i]
	}
	return strings.ToLower(addr)
}
