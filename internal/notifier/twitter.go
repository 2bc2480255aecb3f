package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
)

const maxTweetLength = 280

// TwitterConfig holds the OAuth1 credentials of the posting account.
type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterNotifier posts messages as tweets
type TwitterNotifier struct {
	client *twitter.Client
}

// NewTwitterNotifier creates a new Twitter notifier. All four credentials
// are required.
func NewTwitterNotifier(cfg TwitterConfig) (*TwitterNotifier, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	return newTwitterNotifier(config.Client(oauth1.NoContext, token)), nil
}

func newTwitterNotifier(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{client: twitter.NewClient(httpClient)}
}

// Notify posts one tweet
func (n *TwitterNotifier) Notify(_ context.Context, msg Message) error {
	if _, _, err := n.client.Statuses.Update(formatTweet(msg), nil); err != nil {
		return fmt.Errorf("failed to post tweet: %w", err)
	}
	return nil
}

// formatTweet formats a message as a tweet
func formatTweet(msg Message) string {
	tweet := []rune(msg.Text())

	// Twitter limit is 280 characters
	if len(tweet) > maxTweetLength {
		// Truncate and add ellipsis
		return string(tweet[:maxTweetLength-3]) + "..."
	}

	return string(tweet)
}
