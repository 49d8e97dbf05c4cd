// Package notify delivers accepted listings to a chat channel.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"rental-notifier/models"
	"rental-notifier/utils"
)

// SlackNotifier posts messages with a bot token.
type SlackNotifier struct {
	client *slack.Client
	logger *utils.Logger
}

// NewSlackNotifier creates a notifier. Extra options go to the Slack client.
func NewSlackNotifier(token string, logger *utils.Logger, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token, opts...), logger: logger}
}

func (s *SlackNotifier) Notify(ctx context.Context, n models.Notification) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(n.Text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	}
	if n.Username != "" {
		opts = append(opts, slack.MsgOptionUsername(n.Username))
	}
	if n.Icon != "" {
		opts = append(opts, slack.MsgOptionIconEmoji(n.Icon))
	}

	channel, ts, err := s.client.PostMessageContext(ctx, n.Channel, opts...)
	if err != nil {
		return fmt.Errorf("notify: post to %s: %w", n.Channel, err)
	}
	s.logger.Debug("[notify] Posted to %s at %s", channel, ts)
	return nil
}

// LogNotifier writes notifications to the log instead of a chat service.
type LogNotifier struct {
	logger *utils.Logger
}

func NewLogNotifier(logger *utils.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) error {
	l.logger.Info("[notify] %s (%s):\n%s", n.Channel, n.Username, n.Text)
	return nil
}
