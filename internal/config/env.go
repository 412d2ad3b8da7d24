package config

import (
	"strings"

	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// configKeys lists every key that can be overridden from the environment.
// viper only consults the environment during Unmarshal for keys it already knows.
var configKeys = []string{
	"server.url",
	"server.timeout",
	"server.username",
	"sync.call_timeout",
	"sync.trust_patch_response",
	"cache.dir",
	"ui.default_view",
	"ui.confirm_clear",
	"ui.fuzzy_search",
	"logging.file",
	"logging.level",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}
