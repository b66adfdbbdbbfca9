// Package policy decides which frontmatter mutations a document needs for a
// given event. Plans are pure data built from the parsed document, the stamp
// options, and an instant; applying a plan is the only thing that mutates.
package policy

import (
	"time"

	"github.com/starford/daymark/internal/clock"
	"github.com/starford/daymark/internal/metadoc"
)

// Kind identifies why a document is being processed.
type Kind string

const (
	// KindNew is a freshly created document with no stamps yet.
	KindNew Kind = "created"
	// KindEdit is an externally triggered edit of an existing document.
	KindEdit Kind = "edited"
	// KindTemplateDone fires after a templating tool finished populating a
	// document. Timestamps are assumed set already and are never touched.
	KindTemplateDone Kind = "template"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindNew, KindEdit, KindTemplateDone:
		return true
	}
	return false
}

// Options are the stamping switches, mirrored from the stamp config section.
type Options struct {
	BaseTag                string
	UpdateModifiedOnEdit   bool
	DelegateModified       bool
	AddTypeIfMissing       bool
	TypeValue              string
	PreserveCreationTag    bool
	AppendDuplicateDayTags bool
}

// Header field names maintained by the policy.
const (
	FieldCreated  = "created"
	FieldModified = "modified"
	FieldType     = "type"
)

type opCode int

const (
	opSetIfAbsent opCode = iota
	opSet
	opEnsureTagFront
	opAddTag
	opAddTagAlways
)

type op struct {
	code       opCode
	key, value string
}

// Plan is an ordered list of header and tag mutations.
type Plan struct {
	ops []op
}

// Empty reports whether the plan contains no operations.
func (p Plan) Empty() bool { return len(p.ops) == 0 }

// Apply executes the plan against doc and reports whether any operation
// changed the document.
func (p Plan) Apply(doc *metadoc.Document) bool {
	changed := false
	for _, o := range p.ops {
		switch o.code {
		case opSetIfAbsent:
			changed = doc.SetIfAbsent(o.key, o.value) || changed
		case opSet:
			changed = doc.Set(o.key, o.value) || changed
		case opEnsureTagFront:
			changed = doc.EnsureTagFront(o.value) || changed
		case opAddTag:
			changed = doc.AddTag(o.value) || changed
		case opAddTagAlways:
			changed = doc.AddTagAlways(o.value) || changed
		}
	}
	return changed
}

// Build computes the mutation plan for one invocation. It reads doc but
// never mutates it. Creation-tag front-ordering is always planned before the
// add-today step, so a creation day equal to today is already at position 0
// when add-today runs and is not duplicated.
func Build(kind Kind, doc *metadoc.Document, opts Options, now time.Time) Plan {
	base := opts.BaseTag
	if base == "" {
		base = "date"
	}
	stamp := now.Format(clock.StampLayout)
	today := clock.DayKey(base, now)

	var p Plan
	switch kind {
	case KindNew:
		p.ops = append(p.ops,
			op{code: opSetIfAbsent, key: FieldCreated, value: stamp},
			op{code: opSetIfAbsent, key: FieldModified, value: stamp},
		)
		if opts.AddTypeIfMissing {
			p.ops = append(p.ops, op{code: opSetIfAbsent, key: FieldType, value: opts.TypeValue})
		}
		p.ops = append(p.ops, op{code: opAddTag, value: today})

	case KindEdit:
		if opts.UpdateModifiedOnEdit && !opts.DelegateModified {
			p.ops = append(p.ops, op{code: opSet, key: FieldModified, value: stamp})
		}
		p.ops = append(p.ops, creationFront(doc, opts, base)...)
		add := op{code: opAddTag, value: today}
		if opts.AppendDuplicateDayTags {
			add.code = opAddTagAlways
		}
		p.ops = append(p.ops, add)

	case KindTemplateDone:
		p.ops = append(p.ops, creationFront(doc, opts, base)...)
		p.ops = append(p.ops, op{code: opAddTag, value: today})
	}

	return p
}

// creationFront plans the ensure-front step for the tag derived from the
// document's created stamp. An absent or unparseable stamp means no creation
// day is known, which is not an error.
func creationFront(doc *metadoc.Document, opts Options, base string) []op {
	if !opts.PreserveCreationTag {
		return nil
	}
	raw, _ := doc.Get(FieldCreated)
	created, ok := clock.ParseStamp(raw)
	if !ok {
		return nil
	}
	return []op{{code: opEnsureTagFront, value: clock.DayKey(base, created)}}
}
