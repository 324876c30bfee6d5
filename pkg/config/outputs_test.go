package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOutputs_Merge(t *testing.T) {
	global := Outputs{
		Log: LogOutput{Enabled: Bool(true)},
		Email: EmailOutput{
			Enabled: Bool(true), Server: "smtp.global", Port: 25, From: "global@example.com", To: "all@example.com",
		},
		Slack: SlackOutput{
			Enabled: Bool(false), Token: "global-token", Channel: Channels{"#global"},
			Levels: map[string]string{"outage": "alert", "done": "good"},
		},
	}
	group := Outputs{
		Email: EmailOutput{To: "group@example.com", Port: 587},
		Slack: SlackOutput{Enabled: Bool(true), Channel: Channels{"#group-a", "#group-b"}},
	}
	feed := Outputs{
		Log:   LogOutput{Enabled: Bool(false)},
		Slack: SlackOutput{ForceLevel: "warning", Levels: map[string]string{"done": "warning"}},
	}

	merged := global.Merge(group).Merge(feed)

	assert.False(t, merged.Log.IsEnabled(), "feed overrides global bool")
	assert.True(t, merged.Email.IsEnabled(), "global bool kept when not overridden")
	assert.Equal(t, "smtp.global", merged.Email.Server)
	assert.Equal(t, 587, merged.Email.Port)
	assert.Equal(t, "group@example.com", merged.Email.To)
	assert.True(t, merged.Slack.IsEnabled())
	assert.Equal(t, "global-token", merged.Slack.Token)
	assert.Equal(t, Channels{"#group-a", "#group-b"}, merged.Slack.Channel)
	assert.Equal(t, "warning", merged.Slack.ForceLevel)
	assert.Equal(t, map[string]string{"outage": "alert", "done": "warning"}, merged.Slack.Levels)

	t.Run("inputs untouched", func(t *testing.T) {
		assert.True(t, *global.Log.Enabled)
		assert.Equal(t, map[string]string{"outage": "alert", "done": "good"}, global.Slack.Levels)
		assert.Equal(t, Channels{"#global"}, global.Slack.Channel)
		*merged.Email.Enabled = false
		assert.True(t, *global.Email.Enabled, "merged pointers are copies")
	})

	t.Run("empty over", func(t *testing.T) {
		res := global.Merge(Outputs{})
		assert.Equal(t, global, res)
	})

	t.Run("explicit false wins", func(t *testing.T) {
		res := global.Merge(Outputs{Email: EmailOutput{Enabled: Bool(false)}})
		assert.False(t, res.Email.IsEnabled())
	})
}

func TestOutputs_Missing(t *testing.T) {
	assert.Equal(t, []string{"email.to", "email.from"}, EmailOutput{}.Missing())
	assert.Equal(t, []string{"email.to"}, EmailOutput{From: "a@b", To: " , "}.Missing())
	assert.Empty(t, EmailOutput{From: "a@b", To: "c@d"}.Missing())

	assert.Equal(t, []string{"slack.channel", "slack.token"}, SlackOutput{}.Missing())
	assert.Equal(t, []string{"slack.token"}, SlackOutput{Channel: Channels{"#a"}}.Missing())
	assert.Empty(t, SlackOutput{Channel: Channels{"#a"}, Token: "t"}.Missing())
}

func TestEmailOutput_Recipients(t *testing.T) {
	e := EmailOutput{To: "a@example.com, b@example.com,,c@example.com "}
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, e.Recipients())
	assert.Empty(t, EmailOutput{}.Recipients())
}

func TestSlackOutput_LevelKeys(t *testing.T) {
	s := SlackOutput{Levels: map[string]string{"up": "good", "outage": "alert", "partial outage": "warning", "down": "alert"}}
	assert.Equal(t, []string{"partial outage", "outage", "down", "up"}, s.LevelKeys())
}

func TestChannels_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want Channels
		err  bool
	}{
		{name: "string", yaml: `channel: "#ops"`, want: Channels{"#ops"}},
		{name: "list", yaml: `channel: ["#a", "#b"]`, want: Channels{"#a", "#b"}},
		{name: "empty string", yaml: `channel: ""`, want: nil},
		{name: "mapping", yaml: "channel:\n  a: b\n", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s SlackOutput
			err := yaml.Unmarshal([]byte(tt.yaml), &s)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Channel)
		})
	}

	t.Run("json", func(t *testing.T) {
		var c Channels
		require.NoError(t, c.UnmarshalJSON([]byte(`"#one"`)))
		assert.Equal(t, Channels{"#one"}, c)
		require.NoError(t, c.UnmarshalJSON([]byte(`["#one","#two"]`)))
		assert.Equal(t, Channels{"#one", "#two"}, c)
		require.Error(t, c.UnmarshalJSON([]byte(`{}`)))
	})
}
