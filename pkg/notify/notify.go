// Package notify reports finished calibration passes to chat, mail, webhook and script channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

// Params holds configuration for creating a notification Service.
// built from config values by config.Values.NotifyParams.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Result is the outcome of one pass as reported to every channel.
type Result struct {
	Status      string `json:"status"` // StatusSuccess or StatusFailure
	Project     string `json:"project"`
	Version     string `json:"swatcup_version"`
	Stages      string `json:"stages"` // comma separated, pass order
	Duration    string `json:"duration"`
	GoalType    string `json:"goal_type,omitempty"`
	Parameters  int    `json:"parameters"`
	Simulations int    `json:"simulations"`
	Traces      int    `json:"traces"`
	Error       string `json:"error,omitempty"`
}

// result statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const defaultTimeout = 10 * time.Second

// Service fans a pass result out to the configured targets. a nil Service sends nothing.
type Service struct {
	targets    []target
	script     string // custom channel, empty when not configured
	onError    bool
	onComplete bool
	timeout    time.Duration
	host       string
	log        logger
}

// target is one destination of a go-pkgz/notify notifier. dest is built per result so
// mail subjects can carry the pass status.
type target struct {
	notifier ntfy.Notifier
	dest     func(r Result) string
	escape   bool // telegram parses HTML
}

type logger interface {
	Print(format string, args ...any)
}

// builders make the targets of a channel name. custom is handled by the service itself.
var builders = map[string]func(p Params) ([]target, error){
	"email":   emailTargets,
	"slack":   slackTargets,
	"webhook": webhookTargets,
}

// newTelegram is replaced in tests, the real notifier checks the token against the API.
var newTelegram = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token}) //nolint:wrapcheck // wrapped by caller
}

// New creates a Service from p. it returns nil, nil when no channel is configured.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil service is valid, Send is nil-safe
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeout: defaultTimeout, host: host, log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}

	for _, raw := range p.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "custom":
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.script = p.CustomScript
		case "telegram":
			t, tErr := telegramTarget(p)
			if tErr != nil {
				if p.TelegramToken == "" || p.TelegramChat == "" {
					return nil, fmt.Errorf("telegram channel: %w", tErr)
				}
				// an unreachable api must not block a calibration pass, the channel is dropped
				log.Print("[WARN] telegram channel disabled: %s", strings.ReplaceAll(tErr.Error(), p.TelegramToken, "[REDACTED]"))
				continue
			}
			svc.targets = append(svc.targets, t)
		default:
			build, ok := builders[name]
			if !ok {
				return nil, fmt.Errorf("unknown notification channel: %q", raw)
			}
			ts, bErr := build(p)
			if bErr != nil {
				return nil, fmt.Errorf("%s channel: %w", name, bErr)
			}
			svc.targets = append(svc.targets, ts...)
		}
	}

	if len(svc.targets) == 0 && svc.script == "" {
		log.Print("[WARN] no notification channel left after initialization")
	}
	return svc, nil
}

// Send reports r to every target when its status is enabled. failures are logged, never returned.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil {
		return
	}
	if (r.Status == StatusSuccess && !s.onComplete) || (r.Status != StatusSuccess && !s.onError) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := Message(r, s.host)
	for _, t := range s.targets {
		text := msg
		if t.escape {
			text = html.EscapeString(msg)
		}
		if err := t.notifier.Send(ctx, t.dest(r), text); err != nil {
			s.log.Print("[WARN] %s notification failed: %v", t.notifier.Schema(), err)
		}
	}
	if s.script != "" {
		if err := runScript(ctx, s.script, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

// Subject is the one-line summary of a pass, used as the message title and mail subject.
func Subject(r Result) string {
	name := filepath.Base(r.Project)
	if r.Project == "" {
		name = "project"
	}
	if r.Status == StatusSuccess {
		return fmt.Sprintf("sufi2 pass on %s completed", name)
	}
	return fmt.Sprintf("sufi2 pass on %s failed", name)
}

// Message renders the plain text notification of r sent from host.
func Message(r Result, host string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", Subject(r), host)

	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-9s %s\n", label+":", value)
		}
	}
	line("project", r.Project)
	line("swat-cup", r.Version)
	line("stages", strings.ReplaceAll(r.Stages, ",", " -> "))
	line("duration", r.Duration)
	if r.GoalType != "" {
		line("goal", fmt.Sprintf("%s over %d simulations of %d parameters", r.GoalType, r.Simulations, r.Parameters))
	}
	if r.Traces > 0 {
		line("traces", fmt.Sprintf("%d variables", r.Traces))
	}
	line("error", r.Error)
	return b.String()
}

func telegramTarget(p Params) (target, error) {
	if p.TelegramToken == "" {
		return target{}, errors.New("notify_telegram_token is required")
	}
	if p.TelegramChat == "" {
		return target{}, errors.New("notify_telegram_chat is required")
	}
	tg, err := newTelegram(p.TelegramToken)
	if err != nil {
		return target{}, fmt.Errorf("create telegram notifier: %w", err)
	}
	dest := "telegram:" + p.TelegramChat + "?parseMode=HTML"
	return target{notifier: tg, dest: fixed(dest), escape: true}, nil
}

func emailTargets(p Params) ([]target, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}
	em := ntfy.NewEmail(ntfy.SMTPParams{Host: p.SMTPHost, Port: p.SMTPPort, Username: p.SMTPUsername,
		Password: p.SMTPPassword, StartTLS: p.SMTPStartTLS})
	to := strings.Join(p.EmailTo, ",")
	dest := func(r Result) string {
		return fmt.Sprintf("mailto:%s?from=%s&subject=%s", to, url.QueryEscape(p.EmailFrom), url.QueryEscape(Subject(r)))
	}
	return []target{{notifier: em, dest: dest}}, nil
}

func slackTargets(p Params) ([]target, error) {
	if p.SlackToken == "" {
		return nil, errors.New("notify_slack_token is required")
	}
	if p.SlackChannel == "" {
		return nil, errors.New("notify_slack_channel is required")
	}
	return []target{{notifier: ntfy.NewSlack(p.SlackToken), dest: fixed("slack:" + p.SlackChannel)}}, nil
}

func webhookTargets(p Params) ([]target, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, target{notifier: wh, dest: fixed(u)})
	}
	return res, nil
}

func fixed(dest string) func(Result) string {
	return func(Result) string { return dest }
}
