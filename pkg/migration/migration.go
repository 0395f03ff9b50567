// Package migration runs versioned schema changes and records them in
// apotek_migrations.
//
// Migrations register themselves from init():
//
//	func init() {
//	    migration.Register("20260101000000_create_products_table", &CreateProductsTable{})
//	}
//
// and run from the CLI:
//
//	apotek migrate             // run all pending
//	apotek migrate:rollback    // roll back last batch
//	apotek migrate:status
package migration

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shashiranjanraj/apotek/pkg/logger"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// Record is one row of the tracking table.
type Record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string { return "apotek_migrations" }

// Status describes one registered migration.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type registered struct {
	name string
	m    Migration
}

var registry []registered

// Register adds a migration. name should be timestamp-prefixed
// ("20260101000000_create_products_table"); pending migrations run in name
// order regardless of registration order.
func Register(name string, m Migration) {
	registry = append(registry, registered{name: name, m: m})
}

var ErrNotRegistered = errors.New("migration: not registered")

type Runner struct {
	db         *gorm.DB
	migrations []registered
}

// New returns a runner over every globally registered migration.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db, migrations: append([]registered(nil), registry...)}
}

// NewWith returns a runner over an explicit set, keyed by name.
func NewWith(db *gorm.DB, set map[string]Migration) *Runner {
	r := &Runner{db: db}
	for name, m := range set {
		r.migrations = append(r.migrations, registered{name: name, m: m})
	}
	return r
}

func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&Record{})
}

func (r *Runner) ran() (map[string]Record, error) {
	var rows []Record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]Record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

func (r *Runner) sorted() []registered {
	out := append([]registered(nil), r.migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Pending returns the names of migrations not yet applied, in run order.
func (r *Runner) Pending() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}
	var names []string
	for _, reg := range r.sorted() {
		if _, ok := done[reg.name]; !ok {
			names = append(names, reg.name)
		}
	}
	return names, nil
}

// Run applies every pending migration as one batch and returns the names
// it applied. Each migration and its record commit together.
func (r *Runner) Run() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}

	batch := r.nextBatch()
	var applied []string
	for _, reg := range r.sorted() {
		if _, ok := done[reg.name]; ok {
			continue
		}
		logger.Info("migration: running", "name", reg.name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Record{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		applied = append(applied, reg.name)
	}

	logger.Info("migration: done", "ran", len(applied), "batch", batch)
	return applied, nil
}

// Rollback reverses the most recent batch, newest first, and returns the
// names it rolled back.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	last := r.nextBatch() - 1
	if last == 0 {
		return nil, nil
	}

	var rows []Record
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(r.migrations))
	for _, reg := range r.migrations {
		byName[reg.name] = reg.m
	}

	var reverted []string
	for _, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return reverted, fmt.Errorf("%w: %s", ErrNotRegistered, rec.Name)
		}
		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return reverted, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&Record{}, rec.ID).Error; err != nil {
			return reverted, err
		}
		reverted = append(reverted, rec.Name)
	}
	return reverted, nil
}

// Status lists every registered migration in run order.
func (r *Runner) Status() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	var out []Status
	for _, reg := range r.sorted() {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

// PrintStatus writes Status as a table.
func PrintStatus(w io.Writer, rows []Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MIGRATION\tSTATUS\tBATCH")
	for _, s := range rows {
		if s.Ran {
			fmt.Fprintf(tw, "%s\tRan\t%d\n", s.Name, s.Batch)
		} else {
			fmt.Fprintf(tw, "%s\tPending\t-\n", s.Name)
		}
	}
	return tw.Flush()
}

func (r *Runner) nextBatch() int {
	var row struct{ Max int }
	r.db.Model(&Record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&row)
	return row.Max + 1
}
