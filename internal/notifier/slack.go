package notifier

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

const (
	DefaultSlackUsername = "WorldCup Bot"
	DefaultSlackIconURL  = "https://i.imgur.com/Pd0cpqE.png"
)

// SlackConfig configures the Slack notifier. APIURL overrides the Web API
// base URL and must end with a slash.
type SlackConfig struct {
	Token    string
	Channel  string
	Username string
	IconURL  string
	APIURL   string
}

// Slack posts messages to a Slack channel. The subject is the message text
// and the detail becomes an attachment.
type Slack struct {
	client   *slack.Client
	channel  string
	username string
	iconURL  string
}

// NewSlack creates a Slack notifier.
func NewSlack(cfg SlackConfig) (*Slack, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("slack token is required")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("slack channel is required")
	}
	if cfg.Username == "" {
		cfg.Username = DefaultSlackUsername
	}
	if cfg.IconURL == "" {
		cfg.IconURL = DefaultSlackIconURL
	}

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &Slack{
		client:   slack.New(cfg.Token, opts...),
		channel:  cfg.Channel,
		username: cfg.Username,
		iconURL:  cfg.IconURL,
	}, nil
}

// Notify posts msg to the configured channel.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Subject, false),
		slack.MsgOptionUsername(s.username),
		slack.MsgOptionIconURL(s.iconURL),
	}
	if msg.Detail != "" {
		opts = append(opts, slack.MsgOptionAttachments(slack.Attachment{Text: msg.Detail}))
	}

	if _, _, err := s.client.PostMessageContext(ctx, s.channel, opts...); err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	return nil
}
