package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Logger is the structured logger used by the catalog.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Journal receives one entry per catalog change.
// *audit.SQLiteRepository implements it.
type Journal interface {
	Record(ctx context.Context, action, serial, name string, details map[string]any) error
}

// Journal actions.
const (
	actionAdded    = "added"
	actionRestored = "restored"
	actionRemoved  = "removed"
)

// Catalog restores, creates and prunes accessory records.
type Catalog struct {
	repo    Repository
	logger  Logger
	journal Journal
}

// NewCatalog creates a catalog backed by repo. logger may be nil.
func NewCatalog(repo Repository, logger Logger) *Catalog {
	return &Catalog{repo: repo, logger: logger}
}

// SetJournal attaches a change journal. Journal failures are logged and
// never fail the catalog operation.
func (c *Catalog) SetJournal(j Journal) {
	c.journal = j
}

// Ensure returns the record for serial, creating it when the serial has
// never been seen. restored reports whether an existing record was used.
func (c *Catalog) Ensure(ctx context.Context, serial, name string) (rec *Record, restored bool, err error) {
	rec, err = c.repo.Get(ctx, serial)
	switch {
	case err == nil:
		if err := c.repo.Touch(ctx, serial, name); err != nil {
			return nil, false, fmt.Errorf("refreshing accessory %s: %w", serial, err)
		}
		rec.Name = name
		c.logInfo("restoring accessory", "serial", serial, "name", name, "aid", rec.AccessoryID)
		c.record(ctx, actionRestored, serial, name, map[string]any{"aid": rec.AccessoryID})
		return rec, true, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, false, err
	}

	rec, err = c.repo.Create(ctx, serial, name, UUIDFor(serial))
	if err != nil {
		return nil, false, fmt.Errorf("creating accessory %s: %w", serial, err)
	}
	c.logInfo("adding new accessory", "serial", serial, "name", name, "aid", rec.AccessoryID)
	c.record(ctx, actionAdded, serial, name, map[string]any{"aid": rec.AccessoryID, "uuid": rec.UUID})
	return rec, false, nil
}

// Prune removes every record whose serial is not in keep and returns the
// removed serials.
func (c *Catalog) Prune(ctx context.Context, keep []string) ([]string, error) {
	wanted := make(map[string]bool, len(keep))
	for _, s := range keep {
		wanted[s] = true
	}

	records, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, rec := range records {
		if wanted[rec.Serial] {
			continue
		}
		if err := c.repo.Delete(ctx, rec.Serial); err != nil && !errors.Is(err, ErrNotFound) {
			return removed, fmt.Errorf("removing accessory %s: %w", rec.Serial, err)
		}
		c.record(ctx, actionRemoved, rec.Serial, rec.Name, map[string]any{"aid": rec.AccessoryID, "reason": "unconfigured"})
		removed = append(removed, rec.Serial)
	}

	if len(removed) > 0 {
		c.logInfo("removed unconfigured accessories", "count", len(removed), "serials", removed)
	}
	return removed, nil
}

// Remove deletes the record for serial. A missing record is not an error.
func (c *Catalog) Remove(ctx context.Context, serial string) error {
	err := c.repo.Delete(ctx, serial)
	switch {
	case err == nil:
		c.record(ctx, actionRemoved, serial, "", nil)
		return nil
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

// List returns every stored record.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	return c.repo.List(ctx)
}

func (c *Catalog) record(ctx context.Context, action, serial, name string, details map[string]any) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Record(ctx, action, serial, name, details); err != nil && c.logger != nil {
		c.logger.Warn("failed to journal accessory change", "action", action, "serial", serial, "error", err)
	}
}

func (c *Catalog) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
