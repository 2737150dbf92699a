package config

import (
	"github.com/tauraamui/visaged/internal/config"
	"github.com/tauraamui/visaged/pkg/configdef"
)

func DefaultCreator() configdef.Creator {
	return config.DefaultCreator()
}
