// Package notify posts finished standup summaries to a Slack incoming
// webhook. One POST, no retries; the caller records success in the
// posted_externally flag.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Srujan711/AI-Scrum-Master-Backend/internal/model"
)

type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, client: &http.Client{}}
}

func (n *SlackNotifier) Configured() bool { return n.webhookURL != "" }

func (n *SlackNotifier) PostSummary(ctx context.Context, teamName string, sum *model.StandupSummary) error {
	if n.webhookURL == "" {
		return fmt.Errorf("slack webhook not configured")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Standup summary for %s (%s)*\n\n", teamName, sum.Date)
	sb.WriteString(sum.SummaryText)
	if len(sum.ActionItems) > 0 {
		sb.WriteString("\n\n*Action items*\n")
		for _, item := range sum.ActionItems {
			fmt.Fprintf(&sb, "• [%s] %s", strings.ToUpper(item.Priority), item.Description)
			if item.Assignee != "" {
				fmt.Fprintf(&sb, " (%s)", item.Assignee)
			}
			sb.WriteString("\n")
		}
	}

	payload, _ := json.Marshal(map[string]string{"text": sb.String()})
	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack status %d: %s", resp.StatusCode, data)
	}
	return nil
}
