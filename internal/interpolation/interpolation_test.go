package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PCSTATE_HOST", "db.internal")
	t.Setenv("PCSTATE_EMPTY", "")

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"empty string", "", "", false},
		{"no references", "localhost:6379", "localhost:6379", false},
		{"single variable", "${PCSTATE_HOST}", "db.internal", false},
		{"embedded", "${PCSTATE_HOST}:6379", "db.internal:6379", false},
		{"default unused", "${PCSTATE_HOST:localhost}", "db.internal", false},
		{"default used", "${PCSTATE_UNSET_VAR:localhost}", "localhost", false},
		{"empty default", "prefix${PCSTATE_UNSET_VAR:}", "prefix", false},
		{"set but empty", "${PCSTATE_EMPTY:fallback}", "", false},
		{"undefined", "${PCSTATE_UNSET_VAR}", "${PCSTATE_UNSET_VAR}", true},
		{"not a reference", "$PCSTATE_HOST", "$PCSTATE_HOST", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExpandEnvVars(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUndefinedVariable)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

type redisSettings struct {
	Address  string   `env_interpolation:"yes"`
	Password string   `env_interpolation:"yes"`
	Hosts    []string `env_interpolation:"yes"`
	Raw      string
	DB       int
}

type storeSettings struct {
	Path   string `env_interpolation:"yes"`
	Redis  redisSettings
	Backup *redisSettings
	hidden string `env_interpolation:"yes"`
}

func TestInterpolateStruct(t *testing.T) {
	t.Setenv("PCSTATE_DIR", "/var/lib/pcstate")
	t.Setenv("PCSTATE_REDIS_PASSWORD", "s3cret")

	s := &storeSettings{
		Path: "${PCSTATE_DIR}/objects.db",
		Redis: redisSettings{
			Address:  "${PCSTATE_REDIS_ADDR:localhost:6379}",
			Password: "${PCSTATE_REDIS_PASSWORD}",
			Hosts:    []string{"${PCSTATE_DIR}", "plain"},
			Raw:      "${PCSTATE_DIR}",
		},
		Backup: &redisSettings{Address: "${PCSTATE_DIR:x}"},
		hidden: "${PCSTATE_DIR}",
	}
	require.NoError(t, InterpolateStruct(s))

	assert.Equal(t, "/var/lib/pcstate/objects.db", s.Path)
	assert.Equal(t, "localhost:6379", s.Redis.Address)
	assert.Equal(t, "s3cret", s.Redis.Password)
	assert.Equal(t, []string{"/var/lib/pcstate", "plain"}, s.Redis.Hosts)
	assert.Equal(t, "${PCSTATE_DIR}", s.Redis.Raw, "untagged fields are left alone")
	assert.Equal(t, "/var/lib/pcstate", s.Backup.Address)
	assert.Equal(t, "${PCSTATE_DIR}", s.hidden)
}

func TestInterpolateStruct_Errors(t *testing.T) {
	t.Run("missing variables are all reported", func(t *testing.T) {
		s := &storeSettings{
			Path:  "${PCSTATE_MISSING_ONE}",
			Redis: redisSettings{Password: "${PCSTATE_MISSING_TWO}"},
		}
		err := InterpolateStruct(s)
		require.ErrorIs(t, err, ErrUndefinedVariable)
		assert.Contains(t, err.Error(), "PCSTATE_MISSING_ONE")
		assert.Contains(t, err.Error(), "field Redis: field Password")
	})

	t.Run("non pointer", func(t *testing.T) {
		require.Error(t, InterpolateStruct(storeSettings{}))
	})

	t.Run("pointer to non struct", func(t *testing.T) {
		n := 3
		require.Error(t, InterpolateStruct(&n))
	})

	t.Run("nil", func(t *testing.T) {
		require.NoError(t, InterpolateStruct(nil))
		var s *storeSettings
		require.NoError(t, InterpolateStruct(s))
	})
}
