package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/sufi2/pkg/notify"
)

// stale output policies.
const (
	StaleWarn = "warn"
	StaleFail = "fail"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., StrictTraceSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	SwatcupVersion    string
	LauncherTable     string // optional YAML launcher table, relative to the project root
	StrictTrace       bool
	StrictTraceSet    bool // tracks if strict_trace was explicitly set
	PollIntervalMs    int
	PollIntervalMsSet bool // tracks if poll_interval_ms was explicitly set
	StaleOutput       string
	GoalWaitMs        int
	GoalWaitMsSet     bool // tracks if goal_wait_ms was explicitly set

	NotifyChannels        []string
	NotifyOnError         bool
	NotifyOnErrorSet      bool
	NotifyOnComplete      bool
	NotifyOnCompleteSet   bool
	NotifyTimeoutMs       int
	NotifyTimeoutMsSet    bool
	NotifyTelegramToken   string
	NotifyTelegramChat    string
	NotifySlackToken      string
	NotifySlackChannel    string
	NotifySMTPHost        string
	NotifySMTPPort        int
	NotifySMTPPortSet     bool
	NotifySMTPUsername    string
	NotifySMTPPassword    string
	NotifySMTPStartTLS    bool
	NotifySMTPStartTLSSet bool
	NotifyEmailFrom       string
	NotifyEmailTo         []string
	NotifyWebhookURLs     []string
	NotifyCustomScript    string
}

// NotifyParams maps the notify_* keys to notification service parameters.
func (v *Values) NotifyParams() notify.Params {
	return notify.Params{
		Channels:      v.NotifyChannels,
		OnError:       v.NotifyOnError,
		OnComplete:    v.NotifyOnComplete,
		TimeoutMs:     v.NotifyTimeoutMs,
		TelegramToken: v.NotifyTelegramToken,
		TelegramChat:  v.NotifyTelegramChat,
		SlackToken:    v.NotifySlackToken,
		SlackChannel:  v.NotifySlackChannel,
		SMTPHost:      v.NotifySMTPHost,
		SMTPPort:      v.NotifySMTPPort,
		SMTPUsername:  v.NotifySMTPUsername,
		SMTPPassword:  v.NotifySMTPPassword,
		SMTPStartTLS:  v.NotifySMTPStartTLS,
		EmailFrom:     v.NotifyEmailFrom,
		EmailTo:       v.NotifyEmailTo,
		WebhookURLs:   v.NotifyWebhookURLs,
		CustomScript:  v.NotifyCustomScript,
	}
}

// valuesLoader loads Values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	// start with embedded defaults
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var v Values
	section := cfg.Section("") // default section (no section header)

	// run settings
	if key, err := section.GetKey("swatcup_version"); err == nil {
		v.SwatcupVersion = strings.TrimSpace(key.String())
	}
	if key, err := section.GetKey("launcher_table"); err == nil {
		v.LauncherTable = strings.TrimSpace(key.String())
	}
	if err := readBool(section, "strict_trace", &v.StrictTrace, &v.StrictTraceSet); err != nil {
		return Values{}, err
	}
	if err := readNonNegative(section, "poll_interval_ms", &v.PollIntervalMs, &v.PollIntervalMsSet); err != nil {
		return Values{}, err
	}
	if v.PollIntervalMsSet && v.PollIntervalMs == 0 {
		return Values{}, fmt.Errorf("invalid poll_interval_ms: must be positive, got %d", v.PollIntervalMs)
	}
	if key, err := section.GetKey("stale_output"); err == nil {
		val := strings.ToLower(strings.TrimSpace(key.String()))
		if val != StaleWarn && val != StaleFail {
			return Values{}, fmt.Errorf("invalid stale_output: must be %s or %s, got %q", StaleWarn, StaleFail, val)
		}
		v.StaleOutput = val
	}
	if err := readNonNegative(section, "goal_wait_ms", &v.GoalWaitMs, &v.GoalWaitMsSet); err != nil {
		return Values{}, err
	}

	// notification settings
	v.NotifyChannels = readList(section, "notify_channels")
	if err := readBool(section, "notify_on_error", &v.NotifyOnError, &v.NotifyOnErrorSet); err != nil {
		return Values{}, err
	}
	if err := readBool(section, "notify_on_complete", &v.NotifyOnComplete, &v.NotifyOnCompleteSet); err != nil {
		return Values{}, err
	}
	if err := readNonNegative(section, "notify_timeout_ms", &v.NotifyTimeoutMs, &v.NotifyTimeoutMsSet); err != nil {
		return Values{}, err
	}
	strKeys := []struct {
		key   string
		field *string
	}{
		{"notify_telegram_token", &v.NotifyTelegramToken},
		{"notify_telegram_chat", &v.NotifyTelegramChat},
		{"notify_slack_token", &v.NotifySlackToken},
		{"notify_slack_channel", &v.NotifySlackChannel},
		{"notify_smtp_host", &v.NotifySMTPHost},
		{"notify_smtp_username", &v.NotifySMTPUsername},
		{"notify_smtp_password", &v.NotifySMTPPassword},
		{"notify_email_from", &v.NotifyEmailFrom},
		{"notify_custom_script", &v.NotifyCustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}
	if err := readNonNegative(section, "notify_smtp_port", &v.NotifySMTPPort, &v.NotifySMTPPortSet); err != nil {
		return Values{}, err
	}
	if err := readBool(section, "notify_smtp_starttls", &v.NotifySMTPStartTLS, &v.NotifySMTPStartTLSSet); err != nil {
		return Values{}, err
	}
	v.NotifyEmailTo = readList(section, "notify_email_to")
	v.NotifyWebhookURLs = readList(section, "notify_webhook_urls")

	return v, nil
}

func readBool(section *ini.Section, name string, dst, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil //nolint:nilerr // missing key is not an error
	}
	val, boolErr := key.Bool()
	if boolErr != nil {
		return fmt.Errorf("invalid %s: %w", name, boolErr)
	}
	*dst, *set = val, true
	return nil
}

func readNonNegative(section *ini.Section, name string, dst *int, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil //nolint:nilerr // missing key is not an error
	}
	val, intErr := key.Int()
	if intErr != nil {
		return fmt.Errorf("invalid %s: %w", name, intErr)
	}
	if val < 0 {
		return fmt.Errorf("invalid %s: must be non-negative, got %d", name, val)
	}
	*dst, *set = val, true
	return nil
}

// readList parses a comma-separated value, dropping empty items.
func readList(section *ini.Section, name string) []string {
	key, err := section.GetKey(name)
	if err != nil {
		return nil
	}
	var res []string
	for p := range strings.SplitSeq(key.String(), ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges non-empty values from src into dst.
//
//nolint:gocyclo // one branch per key
func (dst *Values) mergeFrom(src *Values) {
	if src.SwatcupVersion != "" {
		dst.SwatcupVersion = src.SwatcupVersion
	}
	if src.LauncherTable != "" {
		dst.LauncherTable = src.LauncherTable
	}
	if src.StrictTraceSet {
		dst.StrictTrace, dst.StrictTraceSet = src.StrictTrace, true
	}
	if src.PollIntervalMsSet {
		dst.PollIntervalMs, dst.PollIntervalMsSet = src.PollIntervalMs, true
	}
	if src.StaleOutput != "" {
		dst.StaleOutput = src.StaleOutput
	}
	if src.GoalWaitMsSet {
		dst.GoalWaitMs, dst.GoalWaitMsSet = src.GoalWaitMs, true
	}

	if len(src.NotifyChannels) > 0 {
		dst.NotifyChannels = src.NotifyChannels
	}
	if src.NotifyOnErrorSet {
		dst.NotifyOnError, dst.NotifyOnErrorSet = src.NotifyOnError, true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete, dst.NotifyOnCompleteSet = src.NotifyOnComplete, true
	}
	if src.NotifyTimeoutMsSet {
		dst.NotifyTimeoutMs, dst.NotifyTimeoutMsSet = src.NotifyTimeoutMs, true
	}
	if src.NotifyTelegramToken != "" {
		dst.NotifyTelegramToken = src.NotifyTelegramToken
	}
	if src.NotifyTelegramChat != "" {
		dst.NotifyTelegramChat = src.NotifyTelegramChat
	}
	if src.NotifySlackToken != "" {
		dst.NotifySlackToken = src.NotifySlackToken
	}
	if src.NotifySlackChannel != "" {
		dst.NotifySlackChannel = src.NotifySlackChannel
	}
	if src.NotifySMTPHost != "" {
		dst.NotifySMTPHost = src.NotifySMTPHost
	}
	if src.NotifySMTPPortSet {
		dst.NotifySMTPPort, dst.NotifySMTPPortSet = src.NotifySMTPPort, true
	}
	if src.NotifySMTPUsername != "" {
		dst.NotifySMTPUsername = src.NotifySMTPUsername
	}
	if src.NotifySMTPPassword != "" {
		dst.NotifySMTPPassword = src.NotifySMTPPassword
	}
	if src.NotifySMTPStartTLSSet {
		dst.NotifySMTPStartTLS, dst.NotifySMTPStartTLSSet = src.NotifySMTPStartTLS, true
	}
	if src.NotifyEmailFrom != "" {
		dst.NotifyEmailFrom = src.NotifyEmailFrom
	}
	if len(src.NotifyEmailTo) > 0 {
		dst.NotifyEmailTo = src.NotifyEmailTo
	}
	if len(src.NotifyWebhookURLs) > 0 {
		dst.NotifyWebhookURLs = src.NotifyWebhookURLs
	}
	if src.NotifyCustomScript != "" {
		dst.NotifyCustomScript = src.NotifyCustomScript
	}
}

// stripComments removes lines starting with # (comment lines) from content.
// handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
