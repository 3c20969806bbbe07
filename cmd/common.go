package cmd

import (
	"github.com/hypercheck/hypercheck-backend/platform"
)

// newPlatformAdapter picks the adapter implementation from the
// PLATFORM_ADAPTER environment value. The fake adapter passes every case
// without touching a real platform and is only meant for local development.
func newPlatformAdapter(kind string) platform.Adapter {
	if kind == "fake" {
		return platform.NewFakeAdapter()
	}
	return platform.NewApiAdapter(platform.EnvCredentialsProvider{})
}
