package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/umputun/rssalert/pkg/domain"
)

// Outputs holds notification channel settings. The same shape is used globally, per group and per feed,
// and Merge layers them with the more specific level winning per leaf.
type Outputs struct {
	Log   LogOutput   `yaml:"log" json:"log" jsonschema:"description=Log channel"`
	Email EmailOutput `yaml:"email" json:"email" jsonschema:"description=Email channel"`
	Slack SlackOutput `yaml:"slack" json:"slack" jsonschema:"description=Slack channel"`
}

// LogOutput configures alerts written to the application log
type LogOutput struct {
	Enabled *bool `yaml:"enabled" json:"enabled,omitempty" jsonschema:"description=Enable log alerts"`
}

// EmailOutput configures email alerts
type EmailOutput struct {
	Enabled  *bool  `yaml:"enabled" json:"enabled,omitempty" jsonschema:"description=Enable email alerts"`
	Server   string `yaml:"server" json:"server,omitempty" jsonschema:"description=SMTP server host"`
	Port     int    `yaml:"port" json:"port,omitempty" jsonschema:"description=SMTP server port"`
	From     string `yaml:"from" json:"from,omitempty" jsonschema:"description=Sender address"`
	To       string `yaml:"to" json:"to,omitempty" jsonschema:"description=Recipients separated by comma"`
	Username string `yaml:"username" json:"username,omitempty" jsonschema:"description=SMTP user"`
	Password string `yaml:"password" json:"password,omitempty" jsonschema:"description=SMTP password"`
	StartTLS *bool  `yaml:"starttls" json:"starttls,omitempty" jsonschema:"description=Use STARTTLS"`
}

// SlackOutput configures Slack alerts
type SlackOutput struct {
	Enabled    *bool             `yaml:"enabled" json:"enabled,omitempty" jsonschema:"description=Enable Slack alerts"`
	Token      string            `yaml:"token" json:"token,omitempty" jsonschema:"description=Slack bot token"`
	Channel    Channels          `yaml:"channel" json:"channel,omitempty" jsonschema:"description=Channel or list of channels"`
	MatchBody  *bool             `yaml:"match_body" json:"match_body,omitempty" jsonschema:"description=Match severity keywords against description too"`
	ForceLevel string            `yaml:"force_level" json:"force_level,omitempty" jsonschema:"enum=good,enum=warning,enum=alert,enum=danger,description=Always use this severity"`
	Levels     map[string]string `yaml:"levels" json:"levels,omitempty" jsonschema:"description=Keyword to severity map checked before the classifier"`
	APIURL     string            `yaml:"api_url" json:"api_url,omitempty" jsonschema:"description=Slack API base URL override"`
}

// Channels is a list of chat channels, accepts a single string or a list in yaml
type Channels []string

// UnmarshalYAML decodes a scalar or a sequence
func (c *Channels) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return fmt.Errorf("decode channel: %w", err)
		}
		*c = nil
		if s != "" {
			*c = Channels{s}
		}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return fmt.Errorf("decode channels: %w", err)
		}
		*c = ss
		return nil
	default:
		return fmt.Errorf("channel must be a string or a list of strings")
	}
}

// UnmarshalJSON decodes a string or an array
func (c *Channels) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = nil
		if s != "" {
			*c = Channels{s}
		}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return fmt.Errorf("channel must be a string or a list of strings: %w", err)
	}
	*c = ss
	return nil
}

// Merge returns a copy of o with every leaf set in over replacing the value from o.
// Neither o nor over is modified.
func (o Outputs) Merge(over Outputs) Outputs {
	res := Outputs{
		Log: LogOutput{Enabled: pickBool(o.Log.Enabled, over.Log.Enabled)},
		Email: EmailOutput{
			Enabled:  pickBool(o.Email.Enabled, over.Email.Enabled),
			Server:   pickString(o.Email.Server, over.Email.Server),
			Port:     o.Email.Port,
			From:     pickString(o.Email.From, over.Email.From),
			To:       pickString(o.Email.To, over.Email.To),
			Username: pickString(o.Email.Username, over.Email.Username),
			Password: pickString(o.Email.Password, over.Email.Password),
			StartTLS: pickBool(o.Email.StartTLS, over.Email.StartTLS),
		},
		Slack: SlackOutput{
			Enabled:    pickBool(o.Slack.Enabled, over.Slack.Enabled),
			Token:      pickString(o.Slack.Token, over.Slack.Token),
			Channel:    append(Channels(nil), o.Slack.Channel...),
			MatchBody:  pickBool(o.Slack.MatchBody, over.Slack.MatchBody),
			ForceLevel: pickString(o.Slack.ForceLevel, over.Slack.ForceLevel),
			APIURL:     pickString(o.Slack.APIURL, over.Slack.APIURL),
		},
	}
	if over.Email.Port != 0 {
		res.Email.Port = over.Email.Port
	}
	if len(over.Slack.Channel) > 0 {
		res.Slack.Channel = append(Channels(nil), over.Slack.Channel...)
	}
	if len(o.Slack.Levels) > 0 || len(over.Slack.Levels) > 0 {
		res.Slack.Levels = make(map[string]string, len(o.Slack.Levels)+len(over.Slack.Levels))
		for k, v := range o.Slack.Levels {
			res.Slack.Levels[k] = v
		}
		for k, v := range over.Slack.Levels {
			res.Slack.Levels[k] = v
		}
	}
	return res
}

// Recipients returns the trimmed, non-empty email recipients
func (e EmailOutput) Recipients() []string {
	var res []string
	for _, r := range strings.Split(e.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			res = append(res, r)
		}
	}
	return res
}

// IsEnabled reports the enabled flag, unset means disabled
func (e EmailOutput) IsEnabled() bool { return e.Enabled != nil && *e.Enabled }

// Missing returns names of required fields not set
func (e EmailOutput) Missing() []string {
	var res []string
	if len(e.Recipients()) == 0 {
		res = append(res, "email.to")
	}
	if e.From == "" {
		res = append(res, "email.from")
	}
	return res
}

// IsEnabled reports the enabled flag, unset means disabled
func (s SlackOutput) IsEnabled() bool { return s.Enabled != nil && *s.Enabled }

// Missing returns names of required fields not set
func (s SlackOutput) Missing() []string {
	var res []string
	if len(s.Channel) == 0 {
		res = append(res, "slack.channel")
	}
	if s.Token == "" {
		res = append(res, "slack.token")
	}
	return res
}

// IsEnabled reports the enabled flag, unset means disabled
func (l LogOutput) IsEnabled() bool { return l.Enabled != nil && *l.Enabled }

// LevelKeys returns custom level keywords in a stable order, longest first so
// the most specific keyword wins
func (s SlackOutput) LevelKeys() []string {
	keys := make([]string, 0, len(s.Levels))
	for k := range s.Levels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (s SlackOutput) validateLevels() error {
	if s.ForceLevel != "" {
		if _, ok := domain.ParseSeverity(s.ForceLevel); !ok {
			return fmt.Errorf("unknown slack.force_level %q", s.ForceLevel)
		}
	}
	for k, v := range s.Levels {
		if _, ok := domain.ParseSeverity(v); !ok {
			return fmt.Errorf("unknown slack level %q for keyword %q", v, k)
		}
	}
	return nil
}

// Bool returns a pointer to b, handy for building outputs in code
func Bool(b bool) *bool { return &b }

func pickBool(base, over *bool) *bool {
	if over != nil {
		v := *over
		return &v
	}
	if base != nil {
		v := *base
		return &v
	}
	return nil
}

func pickString(base, over string) string {
	if over != "" {
		return over
	}
	return base
}
