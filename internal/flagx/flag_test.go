package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-d", "vault.db", "-x", "1"},
			allowedFlags: []string{"-d", "-l"},
			want:         []string{"-d", "vault.db"},
		},
		{
			name:         "equals form",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "flag without value at end",
			args:         []string{"-l"},
			allowedFlags: []string{"-l"},
			want:         []string{"-l"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-p", "-l", "10"},
			allowedFlags: []string{"-p", "-l"},
			want:         []string{"-p", "-l", "10"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "repeated flag kept in order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFrom(t *testing.T) {
	assert.Equal(t, "/p/short.json", ConfigFileFrom([]string{"-c", "/p/short.json"}))
	assert.Equal(t, "/p/long.json", ConfigFileFrom([]string{"-config", "/p/long.json", "-d", "x.db"}))
	assert.Equal(t, "/p/2.json", ConfigFileFrom([]string{"-c", "/p/1.json", "-config", "/p/2.json"}))
	assert.Empty(t, ConfigFileFrom([]string{"-x", "1"}))
}

func TestJsonConfigFlags_ReadsOSArgs(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"passvaultd", "-c", "/etc/passvault.json"}
	assert.Equal(t, "/etc/passvault.json", JsonConfigFlags())
}

func TestHasFlag(t *testing.T) {
	assert.True(t, HasFlag([]string{"-a", ":1", "-issue-token"}, "-issue-token"))
	assert.True(t, HasFlag([]string{"-issue-token=true"}, "-issue-token"))
	assert.False(t, HasFlag([]string{"-issue-token=false"}, "-issue-token"))
	assert.False(t, HasFlag(nil, "-issue-token"))
}
