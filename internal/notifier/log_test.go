package notifier

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/fitwatch/internal/model"
)

func TestLogNotifier_Notify_emptyChange(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(model.Change{Company: "acme"}); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_addedAndRemoved(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	change := model.Change{
		Company: "acme",
		Added: []model.Posting{
			{Title: "Engineer", Location: "Remote", Link: "https://example.com/1", PostingDate: "2026-01-15"},
			{Title: "Developer", Location: "US", Link: "https://example.com/2"},
		},
		Removed: []model.Posting{{Title: "Old Role", Link: "https://example.com/0"}},
	}
	if err := n.Notify(change); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	if got := strings.Count(out, "new posting"); got != 2 {
		t.Errorf("expected 2 new posting lines, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "posting removed") || !strings.Contains(out, "posted=2026-01-15") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

type recordingNotifier struct {
	got []model.Change
	err error
}

func (r *recordingNotifier) Notify(c model.Change) error {
	r.got = append(r.got, c)
	return r.err
}

func TestMulti_CallsAllAndReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{err: boom}
	b := &recordingNotifier{}
	m := Multi{a, b}

	err := m.Notify(model.Change{Company: "acme"})
	if !errors.Is(err, boom) {
		t.Errorf("expected first error, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("expected both notifiers called, got %d and %d", len(a.got), len(b.got))
	}
}
