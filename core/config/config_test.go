package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "smash", cfg.Prompt)
	assert.Equal(t, "/bin/bash", cfg.Interpreter)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		modify  func(*Configuration)
		wantErr string
	}{
		"valid": {
			modify: func(*Configuration) {},
		},
		"missing prompt": {
			modify:  func(c *Configuration) { c.Prompt = "" },
			wantErr: "Configuration.prompt",
		},
		"missing interpreter": {
			modify:  func(c *Configuration) { c.Interpreter = "" },
			wantErr: "Configuration.interpreter",
		},
		"negative rate": {
			modify:  func(c *Configuration) { c.CopyBytesPerSecond = -1 },
			wantErr: "Configuration.copy_bytes_per_second",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFs(t *testing.T) {
	cases := map[string]struct {
		contents string
		wantErr  bool
	}{
		"valid":         {contents: "prompt: x\ninterpreter: /bin/sh\n"},
		"unknown field": {contents: "prompt: x\ninterpreter: /bin/sh\nssh_port: 22\n", wantErr: true},
		"invalid":       {contents: "prompt: x\n", wantErr: true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, ConfigurationName, []byte(tc.contents), 0600))

			cfg, err := LoadFs(fs)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", cfg.Prompt)
		})
	}
}
