package alert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/email"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssalert/pkg/alert/mocks"
	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/domain"
)

var testFeed = domain.FeedRef{Group: "Cloud", Name: "aws", URL: "https://status.aws.amazon.com/rss/all.rss"}

func testEntry() domain.Entry {
	published := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return domain.Entry{
		Title:        "Increased error rates",
		Description:  "<p>We are <b>investigating</b> AT&amp;T peering</p>",
		PublishedRaw: "Wed, 01 May 2024 05:30:00 PDT",
		Published:    published,
		DateString:   published.Format(time.RFC1123),
	}
}

func TestDispatcher_Email(t *testing.T) {
	sender := &mocks.EmailSenderMock{SendFunc: func(text string, params email.Params) error { return nil }}
	var gotCfg config.EmailOutput
	d := NewDispatcher(nil, WithEmailSender(func(cfg config.EmailOutput) EmailSender {
		gotCfg = cfg
		return sender
	}))

	cfg := config.EmailOutput{Server: "smtp.example.com", From: "Cloud Feeds <alerts@example.com>", To: "ops@example.com, oncall@example.com"}
	d.Email(context.Background(), testFeed, cfg, testEntry())

	require.Len(t, sender.SendCalls(), 1)
	call := sender.SendCalls()[0]
	assert.Equal(t, "Cloud Alert: (aws) Increased error rates", call.Params.Subject)
	assert.Equal(t, "Cloud Feeds <alerts@example.com>", call.Params.From)
	assert.Equal(t, []string{"ops@example.com", "oncall@example.com"}, call.Params.To)
	assert.Equal(t, "Feed: aws\nDate: Wed, 01 May 2024 12:30:00 UTC\n\nWe are investigating AT&T peering", call.Text)
	assert.Equal(t, "smtp.example.com", gotCfg.Server)

	t.Run("send failure is swallowed", func(t *testing.T) {
		failing := &mocks.EmailSenderMock{SendFunc: func(string, email.Params) error { return errors.New("smtp down") }}
		d := NewDispatcher(nil, WithEmailSender(func(config.EmailOutput) EmailSender { return failing }))
		assert.NotPanics(t, func() { d.Email(context.Background(), testFeed, cfg, testEntry()) })
		assert.Len(t, failing.SendCalls(), 1)
	})
}

func TestDispatcher_Log(t *testing.T) {
	d := NewDispatcher(nil)
	assert.NotPanics(t, func() {
		d.Log(context.Background(), testFeed, config.LogOutput{}, testEntry())
		d.Log(context.Background(), testFeed, config.LogOutput{}, domain.Entry{Title: "raw only", PublishedRaw: "yesterday"})
	})
}

func TestDispatcher_Severity(t *testing.T) {
	d := NewDispatcher(NewClassifier(nil, nil))
	entry := domain.Entry{Title: "Partial outage", Description: "issue resolved"}

	tests := []struct {
		name string
		cfg  config.SlackOutput
		want domain.Severity
	}{
		{name: "classifier", cfg: config.SlackOutput{}, want: domain.SeverityAlert},
		{name: "match body", cfg: config.SlackOutput{MatchBody: config.Bool(true)}, want: domain.SeverityGood},
		{name: "force level", cfg: config.SlackOutput{ForceLevel: "warning", MatchBody: config.Bool(true)}, want: domain.SeverityWarning},
		{name: "danger alias", cfg: config.SlackOutput{ForceLevel: "danger"}, want: domain.SeverityAlert},
		{name: "custom level", cfg: config.SlackOutput{Levels: map[string]string{"partial": "warning"}}, want: domain.SeverityWarning},
		{name: "custom level case-insensitive", cfg: config.SlackOutput{Levels: map[string]string{"OUTAGE": "good"}}, want: domain.SeverityGood},
		{
			name: "longest custom keyword wins",
			cfg:  config.SlackOutput{Levels: map[string]string{"outage": "alert", "partial outage": "warning"}},
			want: domain.SeverityWarning,
		},
		{name: "custom level no match", cfg: config.SlackOutput{Levels: map[string]string{"maintenance": "good"}}, want: domain.SeverityAlert},
		{name: "bad custom level ignored", cfg: config.SlackOutput{Levels: map[string]string{"partial": "purple"}}, want: domain.SeverityAlert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Severity(tt.cfg, entry))
		})
	}
}

func TestDispatcher_ChatIsolation(t *testing.T) {
	poster := &mocks.ChatPosterMock{PostMessageContextFunc: func(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
		if channelID == "#broken" {
			return "", "", errors.New("channel_not_found")
		}
		return channelID, "1700000000.000100", nil
	}}
	d := NewDispatcher(nil, WithChatPoster(func(config.SlackOutput) ChatPoster { return poster }))

	cfg := config.SlackOutput{Token: "xoxb-1", Channel: config.Channels{"#broken", "#ops", "#cloud"}}
	d.Chat(context.Background(), testFeed, cfg, testEntry())

	calls := poster.PostMessageContextCalls()
	require.Len(t, calls, 3, "a failed channel doesn't stop the others")
	assert.Equal(t, "#broken", calls[0].ChannelID)
	assert.Equal(t, "#ops", calls[1].ChannelID)
	assert.Equal(t, "#cloud", calls[2].ChannelID)
}

func TestDispatcher_ChatSlackAPI(t *testing.T) {
	type posted struct {
		channel, text, username string
		attachments             []map[string]any
	}
	var mu sync.Mutex
	var got []posted

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		var atts []map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("attachments")), &atts))
		mu.Lock()
		got = append(got, posted{channel: r.FormValue("channel"), text: r.FormValue("text"),
			username: r.FormValue("username"), attachments: atts})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1700000000.000100"}`))
	}))
	defer ts.Close()

	d := NewDispatcher(nil)
	cfg := config.SlackOutput{Token: "xoxb-test", Channel: config.Channels{"#ops"}, APIURL: ts.URL}
	d.Chat(context.Background(), testFeed, cfg, testEntry())

	require.Len(t, got, 1)
	assert.Equal(t, "#ops", got[0].channel)
	assert.Equal(t, "*aws*", got[0].text)
	assert.Equal(t, BotUsername, got[0].username)
	require.Len(t, got[0].attachments, 1)

	att := got[0].attachments[0]
	assert.Equal(t, "#cc0000", att["color"])
	blocks, ok := att["blocks"].([]any)
	require.True(t, ok)
	require.Len(t, blocks, 3)

	title := blocks[0].(map[string]any)["text"].(map[string]any)
	assert.Equal(t, "mrkdwn", title["type"])
	assert.Equal(t, ":fire: *Increased error rates*", title["text"])

	desc := blocks[1].(map[string]any)["text"].(map[string]any)
	assert.Equal(t, "We are *investigating* AT&amp;T peering", desc["text"])

	fields := blocks[2].(map[string]any)["fields"].([]any)
	assert.Equal(t, "*Date:*\nWed, 01 May 2024 12:30:00 UTC", fields[0].(map[string]any)["text"])
}

func TestAttachment(t *testing.T) {
	t.Run("colors and icons", func(t *testing.T) {
		for sev, want := range map[domain.Severity][2]string{
			domain.SeverityGood:    {"#00cc00", ":heavy_check_mark:"},
			domain.SeverityWarning: {"#ffc300", ":warning:"},
			domain.SeverityAlert:   {"#cc0000", ":fire:"},
		} {
			att := attachment(testEntry(), sev)
			assert.Equal(t, want[0], att.Color)
			section, ok := att.Blocks.BlockSet[0].(*slack.SectionBlock)
			require.True(t, ok)
			assert.Contains(t, section.Text.Text, want[1])
		}
	})

	t.Run("no description block when empty", func(t *testing.T) {
		att := attachment(domain.Entry{Title: "t", DateString: "now"}, domain.SeverityGood)
		assert.Len(t, att.Blocks.BlockSet, 2)
	})
}
