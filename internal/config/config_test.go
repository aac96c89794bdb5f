package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViperAppliesDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{"jwt.secret": "secret"}))
	require.NoError(t, err)

	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, "token", cfg.CookieName)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestFromViperRequiresSecret(t *testing.T) {
	_, err := fromViper(newTestViper(nil))
	require.Error(t, err)
}

func TestFromViperRejectsInvalidTTL(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{"jwt.secret": "s", "jwt.ttl": "soon"}))
	require.Error(t, err)
}

func TestCookieSecureFollowsEnvironment(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{"jwt.secret": "s", "app.env": "production"}))
	require.NoError(t, err)
	require.True(t, cfg.CookieSecure)

	cfg, err = fromViper(newTestViper(map[string]interface{}{"jwt.secret": "s", "app.env": "production", "cookie.secure": false}))
	require.NoError(t, err)
	require.False(t, cfg.CookieSecure)
}
