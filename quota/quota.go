package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// Area is a quota-bounded storage area: a named directory on a
// filesystem plus the usage record the external quota authority
// maintains for it.
type Area struct {
	fs     billy.Filesystem
	cfg    Config
	logger *slog.Logger
}

// NewArea binds a storage area on fsys described by cfg.
func NewArea(fsys billy.Filesystem, cfg Config, optFns ...Option) (*Area, error) {
	if fsys == nil {
		return nil, errors.New("filesystem must not be nil")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	a := &Area{
		fs:     fsys,
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range optFns {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	return a, nil
}

// Name returns the area's directory name.
func (a *Area) Name() string { return a.cfg.Name }

// Quota returns the area's total capacity in bytes.
func (a *Area) Quota() int64 { return a.cfg.Quota }

// Prepare reads the area's usage record and derives the remaining
// capacity. The record is read exactly once per call and never written;
// maintaining it belongs to the quota authority, not to transfers.
func (a *Area) Prepare(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	name := a.path(UsageRecordName)

	f, err := a.fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNoUsageRecord, name)
		}
		return Snapshot{}, fmt.Errorf("opening usage record %s: %w", name, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			a.logger.Error("closing usage record", "path", name, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(f, maxUsageRecordSize))
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading usage record %s: %w", name, err)
	}

	used, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrBadUsageRecord, name, err)
	}
	if used < 0 {
		return Snapshot{}, fmt.Errorf("%w: %s: negative usage %d", ErrBadUsageRecord, name, used)
	}

	snap := Snapshot{Used: used}
	if growth := a.cfg.Quota - used; growth > 0 {
		snap.AllowedGrowth = growth
	}

	a.logger.Debug("usage snapshot",
		"area", a.cfg.Name,
		"used", snap.Used,
		"allowed_growth", snap.AllowedGrowth,
	)

	return snap, nil
}

// OpenFile opens a file inside the area, creating it according to flag.
// The returned handle satisfies the transfer sink contract.
func (a *Area) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	f, err := a.fs.OpenFile(a.path(name), flag, perm)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.path(name), err)
	}

	return f, nil
}

// Remove deletes a file inside the area.
func (a *Area) Remove(name string) error {
	if err := a.fs.Remove(a.path(name)); err != nil {
		return fmt.Errorf("removing %s: %w", a.path(name), err)
	}

	return nil
}

// path scopes name to the area's directory.
func (a *Area) path(name string) string {
	return filepath.Join(a.cfg.Name, name)
}

// Option is a functional option for configuring an [Area] via [NewArea].
type Option func(*Area) error

// WithLogger injects a custom [slog.Logger] into the [Area].
func WithLogger(logger *slog.Logger) Option {
	return func(a *Area) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		a.logger = logger
		return nil
	}
}
