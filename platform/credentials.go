package platform

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// EnvCredentialsProvider resolves API tokens from the environment. A profile
// specific pair PLATFORM_TOKEN_ID_<PROFILE> / PLATFORM_TOKEN_SECRET_<PROFILE>
// wins over the global PLATFORM_TOKEN_ID / PLATFORM_TOKEN_SECRET pair.
type EnvCredentialsProvider struct{}

func (EnvCredentialsProvider) TokenFor(ctx context.Context, profileId string) (ApiToken, error) {
	suffix := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(profileId))

	tokenId := os.Getenv("PLATFORM_TOKEN_ID_" + suffix)
	secret := os.Getenv("PLATFORM_TOKEN_SECRET_" + suffix)
	if tokenId == "" {
		tokenId = os.Getenv("PLATFORM_TOKEN_ID")
		secret = os.Getenv("PLATFORM_TOKEN_SECRET")
	}
	if tokenId == "" || secret == "" {
		return ApiToken{}, errors.Newf("no platform credentials found for profile %q", profileId)
	}
	return ApiToken{TokenId: tokenId, Secret: secret}, nil
}
