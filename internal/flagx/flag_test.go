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
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "flag without value at the end",
			args:         []string{"-a", ":8080", "-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "value looking like a flag is not consumed",
			args:         []string{"-s", "-d", "db"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s"},
		},
		{
			name:         "nothing allowed",
			args:         []string{"-a", "x"},
			allowedFlags: nil,
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-a", ":1", "-config", "cfg.json"}
	assert.Equal(t, "cfg.json", JsonConfigFlags())

	os.Args = []string{"bin", "-c=short.json"}
	assert.Equal(t, "short.json", JsonConfigFlags())

	os.Args = []string{"bin", "-a", ":1"}
	assert.Equal(t, "", JsonConfigFlags())
}

func TestEnvFileFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-envfile", ".env.local", "-s", "k"}
	assert.Equal(t, ".env.local", EnvFileFlags())
}
