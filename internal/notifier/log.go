package notifier

import (
	"log/slog"

	"github.com/amishk599/fitwatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes postings added and removed by a refresh to the given
// logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each change via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per added and removed posting.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(change model.Change) error {
	for _, p := range change.Added {
		args := []any{"company", change.Company, "title", p.Title, "location", p.Location, "link", p.Link}
		if p.PostingDate != "" {
			args = append(args, "posted", p.PostingDate)
		}
		n.logger.Info("new posting", args...)
	}
	for _, p := range change.Removed {
		n.logger.Info("posting removed", "company", change.Company, "title", p.Title, "link", p.Link)
	}
	return nil
}

// Multi fans a change out to several notifiers. It returns the first error
// after every notifier has been tried.
type Multi []model.Notifier

func (m Multi) Notify(change model.Change) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(change); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
