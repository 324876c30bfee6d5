// Package alert delivers entries to notification channels: the application log, email and slack.
// Every channel swallows and logs its own delivery failures, callers never see them.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/email"
	"github.com/go-pkgz/lgr"
	"github.com/slack-go/slack"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/domain"
)

//go:generate moq -out mocks/email_sender.go -pkg mocks -skip-ensure -fmt goimports . EmailSender
//go:generate moq -out mocks/chat_poster.go -pkg mocks -skip-ensure -fmt goimports . ChatPoster

// BotUsername is the display name used for chat messages
const BotUsername = "RSS Alert Bot"

var slackColors = map[domain.Severity]string{
	domain.SeverityWarning: "#ffc300",
	domain.SeverityGood:    "#00cc00",
	domain.SeverityAlert:   "#cc0000",
}

var slackIcons = map[domain.Severity]string{
	domain.SeverityWarning: "warning",
	domain.SeverityGood:    "heavy_check_mark",
	domain.SeverityAlert:   "fire",
}

// EmailSender sends a single message
type EmailSender interface {
	Send(text string, params email.Params) error
}

// ChatPoster posts a message to a chat channel
type ChatPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Dispatcher renders entries and sends them to the configured channels
type Dispatcher struct {
	classifier *Classifier
	newEmail   func(cfg config.EmailOutput) EmailSender
	newChat    func(cfg config.SlackOutput) ChatPoster
}

// Option customizes a Dispatcher
type Option func(d *Dispatcher)

// WithEmailSender replaces the smtp sender factory
func WithEmailSender(fn func(cfg config.EmailOutput) EmailSender) Option {
	return func(d *Dispatcher) { d.newEmail = fn }
}

// WithChatPoster replaces the slack client factory
func WithChatPoster(fn func(cfg config.SlackOutput) ChatPoster) Option {
	return func(d *Dispatcher) { d.newChat = fn }
}

// NewDispatcher makes a dispatcher classifying chat alerts with classifier
func NewDispatcher(classifier *Classifier, opts ...Option) *Dispatcher {
	if classifier == nil {
		classifier = NewClassifier(nil, nil)
	}
	res := &Dispatcher{classifier: classifier, newEmail: smtpSender, newChat: slackClient}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Log writes the alert to the application log
func (d *Dispatcher) Log(_ context.Context, feed domain.FeedRef, _ config.LogOutput, entry domain.Entry) {
	published := entry.PublishedRaw
	if !entry.Published.IsZero() {
		published = entry.Published.Format(time.RFC3339)
	}
	lgr.Printf("[WARN] [%s] %s: %s", feed.Name, published, entry.Title)
	if entry.Description != "" {
		lgr.Printf("[DEBUG] [%s] %s", feed.Name, entry.Description)
	}
}

// Email sends the alert as a plain text email
func (d *Dispatcher) Email(_ context.Context, feed domain.FeedRef, cfg config.EmailOutput, entry domain.Entry) {
	lgr.Printf("[DEBUG] [%s] alerting email: %s", feed.Name, entry.Title)

	subject := fmt.Sprintf("%s Alert: (%s) %s", feed.Group, feed.Name, entry.Title)
	body := fmt.Sprintf("Feed: %s\nDate: %s\n\n%s", feed.Name, entry.DateString, PlainText(entry.Description))

	params := email.Params{From: cfg.From, To: cfg.Recipients(), Subject: subject}
	if err := d.newEmail(cfg).Send(body, params); err != nil {
		lgr.Printf("[ERROR] [%s] error sending mail: %v", feed.Name, err)
	}
}

// Chat posts the alert to every configured slack channel, one after another.
// A failed channel is logged and doesn't stop the rest.
func (d *Dispatcher) Chat(ctx context.Context, feed domain.FeedRef, cfg config.SlackOutput, entry domain.Entry) {
	lgr.Printf("[DEBUG] [%s] alerting slack: %s", feed.Name, entry.Title)

	severity := d.Severity(cfg, entry)
	att := attachment(entry, severity)
	client := d.newChat(cfg)

	for _, ch := range cfg.Channel {
		_, _, err := client.PostMessageContext(ctx, ch,
			slack.MsgOptionText(fmt.Sprintf("*%s*", feed.Name), false),
			slack.MsgOptionAttachments(att),
			slack.MsgOptionUsername(BotUsername),
		)
		if err != nil {
			lgr.Printf("[WARN] [%s] slack error for channel %s: %v", feed.Name, ch, err)
			continue
		}
		lgr.Printf("[DEBUG] [%s] sent message to slack channel %s", feed.Name, ch)
	}
}

// Severity resolves the chat severity of an entry: forced level first, then custom keyword
// levels, then the classifier
func (d *Dispatcher) Severity(cfg config.SlackOutput, entry domain.Entry) domain.Severity {
	if cfg.ForceLevel != "" {
		if s, ok := domain.ParseSeverity(cfg.ForceLevel); ok {
			return s
		}
	}

	text := entry.Title
	if cfg.MatchBody != nil && *cfg.MatchBody {
		text += entry.Description
	}

	lowerText := strings.ToLower(text)
	for _, k := range cfg.LevelKeys() {
		if !strings.Contains(lowerText, strings.ToLower(k)) {
			continue
		}
		if s, ok := domain.ParseSeverity(cfg.Levels[k]); ok {
			return s
		}
	}

	return d.classifier.Classify(text)
}

func attachment(entry domain.Entry, severity domain.Severity) slack.Attachment {
	date := entry.DateString
	if date == "" {
		date = time.Now().UTC().Format(time.RFC1123)
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(fmt.Sprintf(":%s: *%s*", slackIcons[severity], entry.Title)), nil, nil),
	}
	if desc := SlackMarkdown(entry.Description); desc != "" {
		blocks = append(blocks, slack.NewSectionBlock(markdown(desc), nil, nil))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, []*slack.TextBlockObject{markdown("*Date:*\n" + date)}, nil))

	return slack.Attachment{
		Color:  slackColors[severity],
		Blocks: slack.Blocks{BlockSet: blocks},
	}
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func smtpSender(cfg config.EmailOutput) EmailSender {
	opts := []email.Option{email.ContentType("text/plain"), email.TimeOut(30 * time.Second)}
	if cfg.Port > 0 {
		opts = append(opts, email.Port(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts, email.Auth(cfg.Username, cfg.Password))
	}
	if cfg.StartTLS != nil && *cfg.StartTLS {
		opts = append(opts, email.STARTTLS(true))
	}
	server := cfg.Server
	if server == "" {
		server = "localhost"
	}
	return email.NewSender(server, opts...)
}

func slackClient(cfg config.SlackOutput) ChatPoster {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimSuffix(cfg.APIURL, "/")+"/"))
	}
	return slack.New(cfg.Token, opts...)
}
