package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesLoader_Load_EmbeddedOnly(t *testing.T) {
	values, err := newValuesLoader(defaultsFS).Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "2019", values.SwatcupVersion)
	assert.Equal(t, 1000, values.PollIntervalMs)
	assert.True(t, values.PollIntervalMsSet)
	assert.Equal(t, StaleWarn, values.StaleOutput)
	assert.True(t, values.GoalWaitMsSet)
}

func TestValuesLoader_Load_GlobalAndLocal(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global")
	localConfig := filepath.Join(tmpDir, "local")

	require.NoError(t, os.WriteFile(globalConfig, []byte(`
stale_output = fail
goal_wait_ms = 30000
notify_channels = telegram, webhook
notify_webhook_urls = https://a.example/hook, https://b.example/hook
notify_telegram_token = 123:abc
notify_telegram_chat = -100
`), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte(`
goal_wait_ms = 0
notify_on_complete = false
notify_channels = webhook
`), 0o600))

	values, err := newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, StaleFail, values.StaleOutput)
	assert.Equal(t, 0, values.GoalWaitMs, "explicit zero in local config wins")
	assert.False(t, values.NotifyOnComplete)
	assert.True(t, values.NotifyOnError, "embedded default kept")
	assert.Equal(t, []string{"webhook"}, values.NotifyChannels)
	assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, values.NotifyWebhookURLs)
	assert.Equal(t, "123:abc", values.NotifyTelegramToken)
}

func TestValuesLoader_HashInValue(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global")
	require.NoError(t, os.WriteFile(globalConfig, []byte("notify_slack_channel = #calibration\n"), 0o600))

	values, err := newValuesLoader(defaultsFS).Load("", globalConfig)
	require.NoError(t, err)
	assert.Equal(t, "#calibration", values.NotifySlackChannel, "# is not an inline comment marker")
}

func TestValuesLoader_StaleOutputCase(t *testing.T) {
	values, err := newValuesLoader(defaultsFS).parseValuesFromBytes([]byte("stale_output = FAIL"))
	require.NoError(t, err)
	assert.Equal(t, StaleFail, values.StaleOutput)
}

func TestValues_mergeFrom(t *testing.T) {
	dst := Values{SwatcupVersion: "2019", PollIntervalMs: 1000, PollIntervalMsSet: true, NotifyEmailTo: []string{"a@x"}}
	src := Values{LauncherTable: "t.yml", NotifySMTPStartTLS: false, NotifySMTPStartTLSSet: true}
	dst.mergeFrom(&src)

	assert.Equal(t, "2019", dst.SwatcupVersion)
	assert.Equal(t, "t.yml", dst.LauncherTable)
	assert.Equal(t, 1000, dst.PollIntervalMs)
	assert.True(t, dst.NotifySMTPStartTLSSet)
	assert.Equal(t, []string{"a@x"}, dst.NotifyEmailTo)
}

func Test_stripComments(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"no comments", "a = 1\nb = 2", "a = 1\nb = 2"},
		{"comment lines", "# c\na = 1\n  # indented\n", "a = 1\n"},
		{"crlf", "# c\r\na = 1\r\n", "a = 1\n"},
		{"hash in value kept", "x = #fff", "x = #fff"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripComments(tc.input))
		})
	}
}
