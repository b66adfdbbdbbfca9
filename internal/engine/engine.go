// Package engine runs the stamp pipeline for one document at a time: read,
// parse, build the mutation plan, apply it, and write back only when the
// text actually changed. Every invocation re-reads and re-parses; nothing is
// cached across calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/daymark/internal/apperr"
	"github.com/starford/daymark/internal/checksum"
	"github.com/starford/daymark/internal/clock"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/metadoc"
	"github.com/starford/daymark/internal/policy"
	"github.com/starford/daymark/internal/storage"
)

// ManualKind marks journal entries written by the manual add-today trigger.
const ManualKind = "manual"

// Result reports what one invocation did to a document.
type Result struct {
	Path     string      `json:"path"`
	Kind     policy.Kind `json:"kind"`
	Written  bool        `json:"written"`
	Checksum string      `json:"checksum,omitempty"`
	DayTag   string      `json:"day_tag"`
}

// Detail is the read-only view of a document's header served by the API and
// MCP surfaces.
type Detail struct {
	Path     string          `json:"path"`
	Fields   []metadoc.Field `json:"fields"`
	Tags     []string        `json:"tags"`
	Checksum string          `json:"checksum"`
}

// Service coordinates storage, policy, and the stamp journal.
type Service struct {
	store  storage.Provider
	db     journal.Ledger
	opts   policy.Options
	indent int
}

// NewService creates a stamp engine.
func NewService(store storage.Provider, db journal.Ledger, opts policy.Options, indent int) *Service {
	return &Service{store: store, db: db, opts: opts, indent: indent}
}

// Process runs the full plan for one event. A parse or write failure aborts
// the invocation and leaves the stored document untouched; the caller is
// responsible for surfacing the error exactly once.
func (s *Service) Process(_ context.Context, path string, kind policy.Kind) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("engine: %s: %w: %q", path, apperr.ErrBadKind, kind)
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}

	doc, err := metadoc.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", path, err)
	}

	now := time.Now()
	plan := policy.Build(kind, doc, s.opts, now)
	dayTag := clock.DayKey(s.baseTag(), now)

	if !plan.Apply(doc) {
		return &Result{Path: path, Kind: kind, DayTag: dayTag}, nil
	}
	return s.writeBack(path, string(data), doc, string(kind), dayTag, now)
}

// AddToday is the manual trigger: only the add-today step, independent of
// the full edit plan.
func (s *Service) AddToday(_ context.Context, path string) (*Result, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	doc, err := metadoc.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", path, err)
	}

	now := time.Now()
	dayTag := clock.DayKey(s.baseTag(), now)
	if !doc.AddTag(dayTag) {
		return &Result{Path: path, DayTag: dayTag}, nil
	}
	return s.writeBack(path, string(data), doc, ManualKind, dayTag, now)
}

// Sweep applies the new-document plan to every note in the vault that has no
// created stamp yet. Documents that fail to parse are skipped and counted;
// a vault backfill should not stop at the first malformed note.
func (s *Service) Sweep(ctx context.Context, report func(path string, err error)) (stamped, skipped int, err error) {
	files, err := s.store.List("")
	if err != nil {
		return 0, 0, fmt.Errorf("engine: sweep: %w", err)
	}
	for _, f := range files {
		data, readErr := s.store.Read(f.Path)
		if readErr != nil {
			skipped++
			if report != nil {
				report(f.Path, readErr)
			}
			continue
		}
		doc, parseErr := metadoc.Parse(string(data))
		if parseErr != nil {
			skipped++
			if report != nil {
				report(f.Path, parseErr)
			}
			continue
		}
		if _, ok := doc.Get(policy.FieldCreated); ok {
			continue
		}
		res, procErr := s.Process(ctx, f.Path, policy.KindNew)
		if procErr != nil {
			skipped++
			if report != nil {
				report(f.Path, procErr)
			}
			continue
		}
		if res.Written {
			stamped++
		}
	}
	return stamped, skipped, nil
}

// Detail reads and parses a document for display.
func (s *Service) Detail(_ context.Context, path string) (*Detail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	doc, err := metadoc.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", path, err)
	}
	return &Detail{
		Path:     path,
		Fields:   doc.Fields(),
		Tags:     doc.Tags(),
		Checksum: checksum.Sum(data),
	}, nil
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("engine: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// writeBack serializes and writes only when the rendered text differs from
// the original, then records the written checksum so the watcher can
// recognize this write as our own.
func (s *Service) writeBack(path, original string, doc *metadoc.Document, kind, dayTag string, now time.Time) (*Result, error) {
	out, err := doc.Serialize(s.indent)
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", path, err)
	}
	res := &Result{Path: path, Kind: policy.Kind(kind), DayTag: dayTag}
	if out == original {
		return res, nil
	}
	if err := s.store.Write(path, []byte(out)); err != nil {
		return nil, fmt.Errorf("engine: %s: %w", path, err)
	}
	res.Written = true
	res.Checksum = checksum.Sum([]byte(out))
	if err := s.db.Record(journal.Entry{
		Path:      path,
		Checksum:  res.Checksum,
		Kind:      kind,
		DayTag:    dayTag,
		StampedAt: now,
	}); err != nil {
		// The document is already updated; a journal miss only weakens
		// self-write detection for this one path.
		return res, err
	}
	return res, nil
}

func (s *Service) baseTag() string {
	if s.opts.BaseTag == "" {
		return "date"
	}
	return s.opts.BaseTag
}
