package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// poster abstracts message delivery so dry runs can print instead of post.
type poster interface {
	Post(channel, text string) error
}

// slackPoster delivers messages through the Slack Web API.
type slackPoster struct {
	api *slack.Client
}

func (p *slackPoster) Post(channel, text string) error {
	_, _, err := p.api.PostMessage(channel, slack.MsgOptionText(text, false))
	return err
}

// dryRunPoster prints messages to stdout instead of posting them.
type dryRunPoster struct{}

func (dryRunPoster) Post(channel, text string) error {
	fmt.Printf("[dry-run] #%s: %s\n", channel, text)
	return nil
}

// Notifier delivers change notifications to a Slack channel.
type Notifier struct {
	poster  poster
	channel string
	logger  *slog.Logger
}

// NewNotifier validates the bot token and returns a notifier bound to the
// channel. An invalid token is fatal for the run.
func NewNotifier(token, channel string, logger *slog.Logger) (*Notifier, error) {
	api := slack.New(token)
	if _, err := api.AuthTest(); err != nil {
		return nil, fmt.Errorf("slack authentication failed, check your bot token: %w", err)
	}
	return &Notifier{poster: &slackPoster{api: api}, channel: channel, logger: logger}, nil
}

// NewDryRunNotifier returns a notifier that prints instead of posting. No
// credential is needed or validated.
func NewDryRunNotifier(channel string, logger *slog.Logger) *Notifier {
	return &Notifier{poster: dryRunPoster{}, channel: channel, logger: logger}
}

// Notify posts one message per non-empty part of the delta.
func (n *Notifier) Notify(project int, delta Delta) error {
	if delta.NewReady > 0 {
		text := fmt.Sprintf("You have %d new sample(s) waiting to be scheduled in project %d", delta.NewReady, project)
		if err := n.post(text); err != nil {
			return err
		}
	}

	if len(delta.NewScheduled) > 0 {
		if err := n.post(scheduledMessage(project, delta.NewScheduled)); err != nil {
			return err
		}
	}

	return nil
}

func (n *Notifier) post(text string) error {
	if err := n.poster.Post(n.channel, text); err != nil {
		return fmt.Errorf("posting to %s: %w", n.channel, err)
	}
	n.logger.Info("posted notification", "channel", n.channel, "text", text)
	return nil
}

// scheduledMessage phrases a single new date differently from a batch.
func scheduledMessage(project int, dates []time.Time) string {
	formatted := formatDates(dates)
	if len(formatted) == 1 {
		return fmt.Sprintf("A sample has been (re)scheduled for %s in project %d", formatted[0], project)
	}
	return fmt.Sprintf("Samples have been (re)scheduled in project %d for the following dates:\n%s", project, strings.Join(formatted, ", "))
}
