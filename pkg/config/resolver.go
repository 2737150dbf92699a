package config

import (
	"github.com/tauraamui/visaged/internal/config"
	"github.com/tauraamui/visaged/pkg/configdef"
)

func DefaultResolver() configdef.Resolver {
	return config.DefaultResolver()
}
