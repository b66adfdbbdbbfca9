package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/daymark/internal/apperr"
	"github.com/starford/daymark/internal/metadoc"
	"github.com/starford/daymark/internal/policy"
	"github.com/starford/daymark/internal/testutil"
)

func testEngine(t *testing.T) (*Service, func(path string) string, func(path, content string)) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestJournal(t)
	opts := policy.Options{
		BaseTag:              "date",
		UpdateModifiedOnEdit: true,
		AddTypeIfMissing:     true,
		TypeValue:            "note",
		PreserveCreationTag:  true,
	}
	svc := NewService(store, db, opts, 2)

	read := func(path string) string {
		t.Helper()
		data, err := store.Read(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		return string(data)
	}
	write := func(path, content string) {
		t.Helper()
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return svc, read, write
}

func TestProcess_NewDocument(t *testing.T) {
	svc, read, write := testEngine(t)
	write("hello.md", "Hello world")

	res, err := svc.Process(context.Background(), "hello.md", policy.KindNew)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Written {
		t.Fatal("expected write")
	}

	out := read("hello.md")
	for _, frag := range []string{"created: ", "modified: ", "type: note", "tags:\n  - date/"} {
		if !strings.Contains(out, frag) {
			t.Errorf("output missing %q:\n%s", frag, out)
		}
	}
	if !strings.HasSuffix(out, "Hello world") {
		t.Errorf("body lost:\n%s", out)
	}

	doc, err := metadoc.Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	created, _ := doc.Get("created")
	modified, _ := doc.Get("modified")
	if created == "" || created != modified {
		t.Errorf("created = %q, modified = %q, want equal and set", created, modified)
	}
}

func TestProcess_NoOpLeavesFileUntouched(t *testing.T) {
	svc, read, write := testEngine(t)
	write("a.md", "plain text")

	if _, err := svc.Process(context.Background(), "a.md", policy.KindNew); err != nil {
		t.Fatal(err)
	}
	first := read("a.md")

	// A second identical pass on the same day adds nothing new, so the file
	// content must not change.
	res, err := svc.Process(context.Background(), "a.md", policy.KindNew)
	if err != nil {
		t.Fatal(err)
	}
	if res.Written {
		t.Error("second pass should not write")
	}
	if read("a.md") != first {
		t.Error("file changed on a no-op pass")
	}
}

func TestProcess_ParseErrorAbortsWithoutWrite(t *testing.T) {
	svc, read, write := testEngine(t)
	broken := "---\ntitle: Broken\nno closing fence\n"
	write("broken.md", broken)

	_, err := svc.Process(context.Background(), "broken.md", policy.KindEdit)
	var pe *metadoc.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *metadoc.ParseError", err)
	}
	if !strings.Contains(err.Error(), "broken.md") {
		t.Errorf("error should name the document: %v", err)
	}
	if read("broken.md") != broken {
		t.Error("document modified despite parse failure")
	}
}

func TestProcess_MissingFile(t *testing.T) {
	svc, _, _ := testEngine(t)
	_, err := svc.Process(context.Background(), "nope.md", policy.KindEdit)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestProcess_BadKind(t *testing.T) {
	svc, _, write := testEngine(t)
	write("a.md", "x")
	_, err := svc.Process(context.Background(), "a.md", policy.Kind("bogus"))
	if !errors.Is(err, apperr.ErrBadKind) {
		t.Errorf("err = %v, want ErrBadKind", err)
	}
}

func TestProcess_RecordsJournal(t *testing.T) {
	_, store := testutil.TestVault(t)
	db := testutil.TestJournal(t)
	svc := NewService(store, db, policy.Options{BaseTag: "date", UpdateModifiedOnEdit: true}, 2)
	_ = store.Write("j.md", []byte("body"))

	res, err := svc.Process(context.Background(), "j.md", policy.KindNew)
	if err != nil {
		t.Fatal(err)
	}
	e, err := db.Get("j.md")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("expected journal entry")
	}
	if e.Checksum != res.Checksum {
		t.Errorf("journal checksum = %q, result %q", e.Checksum, res.Checksum)
	}
	if e.Kind != string(policy.KindNew) {
		t.Errorf("journal kind = %q", e.Kind)
	}
}

func TestAddToday_OnlyAddsTag(t *testing.T) {
	svc, read, write := testEngine(t)
	write("m.md", "---\ncreated: 2020-01-01 10:00:00\nmodified: 2020-01-01 10:00:00\n---\nbody")

	res, err := svc.AddToday(context.Background(), "m.md")
	if err != nil {
		t.Fatalf("AddToday: %v", err)
	}
	if !res.Written {
		t.Fatal("expected write")
	}
	out := read("m.md")
	if !strings.Contains(out, "modified: 2020-01-01 10:00:00") {
		t.Errorf("manual trigger touched modified:\n%s", out)
	}
	if !strings.Contains(out, res.DayTag) {
		t.Errorf("today tag missing:\n%s", out)
	}

	// Second trigger on the same day is a no-op.
	res2, err := svc.AddToday(context.Background(), "m.md")
	if err != nil {
		t.Fatal(err)
	}
	if res2.Written {
		t.Error("duplicate manual trigger should not write")
	}
}

func TestSweep_StampsOnlyUnstamped(t *testing.T) {
	svc, read, write := testEngine(t)
	write("new.md", "fresh")
	write("done.md", "---\ncreated: 2020-01-01 10:00:00\n---\nold")
	write("broken.md", "---\nunterminated\n")

	var reported []string
	stamped, skipped, err := svc.Sweep(context.Background(), func(path string, _ error) {
		reported = append(reported, path)
	})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if stamped != 1 {
		t.Errorf("stamped = %d, want 1", stamped)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(reported) != 1 || reported[0] != "broken.md" {
		t.Errorf("reported = %v", reported)
	}
	if !strings.Contains(read("new.md"), "created: ") {
		t.Error("new.md not stamped")
	}
	if strings.Contains(read("done.md"), "type:") {
		t.Error("already stamped note was touched")
	}
}

func TestDetail(t *testing.T) {
	svc, _, write := testEngine(t)
	write("d.md", "---\ntitle: Hi\ntags:\n  - a\n---\nbody")
	d, err := svc.Detail(context.Background(), "d.md")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(d.Fields) != 2 || d.Fields[0].Key != "title" {
		t.Errorf("fields = %+v", d.Fields)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "a" {
		t.Errorf("tags = %v", d.Tags)
	}
	if d.Checksum == "" {
		t.Error("missing checksum")
	}
}
