// Package notify posts session summaries to a Discord-compatible webhook:
// a rich embed with per-bucket counters, falling back to a plain text
// message when the embed is rejected. Webhook URLs are masked in log output.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/backmassage/transmux/internal/report"
)

const (
	embedColor      = 0x2ECC71
	maxFailedInList = 10
	connectTimeout  = 3 * time.Second
)

// Notifier delivers session reports to a webhook URL. A Notifier with an
// empty URL is disabled and sends nothing.
type Notifier struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// New returns a Notifier posting to url.
func New(url string, log zerolog.Logger) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool { return n.url != "" }

// Send posts the session summary as a rich embed, falling back to a plain
// message when the embed post fails. An unreachable webhook is logged and
// skipped rather than treated as a session error.
func (n *Notifier) Send(ctx context.Context, s *report.Session) error {
	if !n.Enabled() {
		return nil
	}
	if !n.reachable(ctx) {
		n.log.Warn().Str("webhook", MaskURL(n.url)).Msg("webhook unreachable, skipping notification")
		return nil
	}

	if err := n.post(ctx, embedPayload(s)); err != nil {
		n.log.Warn().Err(err).Str("webhook", MaskURL(n.url)).Msg("embed delivery failed, sending plain message")
		if err := n.post(ctx, plainPayload()); err != nil {
			return fmt.Errorf("webhook delivery failed: %w", err)
		}
		return nil
	}
	n.log.Info().Str("webhook", MaskURL(n.url)).Msg("summary embed sent")
	return nil
}

// reachable issues a short HEAD request before posting. Connection errors
// and 4xx/5xx responses both count as unreachable.
func (n *Notifier) reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, n.url, nil)
	if err != nil {
		return false
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

func (n *Notifier) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// MaskURL shortens a webhook URL for log output; only a 30-character prefix
// is shown.
func MaskURL(url string) string {
	const visible = 30
	if len(url) <= visible {
		return url
	}
	return url[:visible] + "..."
}

// --- webhook wire types ---

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func embedPayload(s *report.Session) webhookPayload {
	fields := []embedField{
		{Name: "Mode", Value: string(s.Mode), Inline: true},
		{Name: "Total Files", Value: strconv.Itoa(s.Total), Inline: true},
		{Name: "Converted", Value: strconv.Itoa(s.Converted), Inline: true},
		{Name: "Skipped", Value: strconv.Itoa(s.Skipped), Inline: true},
		{Name: "Failed", Value: strconv.Itoa(s.Failed), Inline: true},
	}
	if s.AudioFailures > 0 {
		fields = append(fields, embedField{Name: "Audio Failures", Value: strconv.Itoa(s.AudioFailures), Inline: true})
	}
	if s.RetryFailures > 0 {
		fields = append(fields, embedField{Name: "Retry Failures", Value: strconv.Itoa(s.RetryFailures), Inline: true})
	}
	if len(s.FailedFiles) > 0 {
		fields = append(fields, embedField{Name: "Failed Files", Value: failedList(s.FailedFiles), Inline: false})
	}

	return webhookPayload{Embeds: []embed{{
		Title:  "Media Conversion Summary",
		Color:  embedColor,
		Fields: fields,
	}}}
}

// failedList renders failed file paths one per line, truncated to the embed
// field limit.
func failedList(files []report.FailedFile) string {
	var lines []string
	for i, f := range files {
		if i == maxFailedInList {
			lines = append(lines, "... (more omitted)")
			break
		}
		lines = append(lines, "- "+f.Path)
	}
	return strings.Join(lines, "\n")
}

func plainPayload() webhookPayload {
	return webhookPayload{Content: "Media conversion batch completed. Check logs for details."}
}
