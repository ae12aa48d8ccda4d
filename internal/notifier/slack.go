package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxListed caps how many added postings one message lists by name.
const maxListed = 10

// SlackNotifier sends change summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(time.Duration)
}

// NewSlackNotifier returns a notifier that posts each change to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Notify sends one Block Kit message per non-empty change. A 429 response is
// retried once after the Retry-After delay.
func (s *SlackNotifier) Notify(change model.Change) error {
	if change.Empty() {
		return nil
	}

	body, err := json.Marshal(buildPayload(change))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		s.sleep(retryAfter)

		status, _, err = s.post(body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}

	s.logger.Info("slack message sent", "company", change.Company, "added", len(change.Added), "removed", len(change.Removed))
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	wait := model.ParseRetryAfter(resp.Header.Get("Retry-After"))
	if wait <= 0 {
		wait = time.Second
	}
	return resp.StatusCode, wait, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy change to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	return n.Notify(model.Change{
		Company: "fitwatch test",
		Added: []model.Posting{{
			Link:        "https://www.ycombinator.com/jobs",
			Title:       "Test Notification (Integration Verified)",
			Location:    "Everywhere",
			PostingDate: time.Now().Format("2006-01-02"),
		}},
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func buildPayload(c model.Change) slackPayload {
	company := capitalize(c.Company)

	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, plural(len(c.Added), "new posting"))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, plural(len(c.Removed), "removed posting"))
	}

	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: "🚀 " + company + ": " + strings.Join(parts, ", ")},
	}}

	if len(c.Added) > 0 {
		var b strings.Builder
		for i, p := range c.Added {
			if i == maxListed {
				fmt.Fprintf(&b, "…and %d more\n", len(c.Added)-maxListed)
				break
			}
			fmt.Fprintf(&b, "• <%s|%s>", p.Link, p.Title)
			if p.Location != "" {
				fmt.Fprintf(&b, " (%s)", p.Location)
			}
			b.WriteString("\n")
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.TrimRight(b.String(), "\n")},
		})
	}

	if len(c.Removed) > 0 {
		titles := make([]string, 0, len(c.Removed))
		for _, p := range c.Removed {
			titles = append(titles, p.Title)
		}
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "Removed: " + strings.Join(titles, ", ")}},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}
