package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timera-ai/timera-api/common/env"
)

var SystemName = "Timera AI"
var ServerAddress = env.String("SERVER_ADDRESS", "http://localhost:8000")

var ServiceName = env.String("SERVICE_NAME", "timera-api")
var InstanceId = uuid.New().String()[:8]

var DebugEnabled = strings.ToLower(os.Getenv("DEBUG")) == "true"
var DebugSQLEnabled = strings.ToLower(os.Getenv("DEBUG_SQL")) == "true"

var PasswordLoginEnabled = true
var RegisterEnabled = true

// JWT settings. Access tokens are short-lived; the refresh token is the only
// way to mint a new one, and a failed refresh forces re-authentication.
var JwtSecret = env.String("JWT_SECRET", uuid.New().String())
var AccessTokenMinutes = env.Int("ACCESS_TOKEN_MINUTES", 30)
var RefreshTokenHours = env.Int("REFRESH_TOKEN_HOURS", 24*7)

var CreditsForNewUser = env.Int("CREDITS_FOR_NEW_USER", 0)

var StripePaymentEnabled = false
var StripePrivateKey = ""
var StripeEndpointSecret = ""
var StripeSuccessUrl = env.String("STRIPE_SUCCESS_URL", ServerAddress+"/checkout/success")
var StripeCancelUrl = env.String("STRIPE_CANCEL_URL", ServerAddress+"/checkout/cancel")

// S3-compatible storage for re-hosting generated artifacts. Empty values
// disable re-hosting and provider URLs are returned as-is.
var ArtifactStoreEnabled = false
var ArtifactBucketName = env.String("ARTIFACT_BUCKET", "")
var ArtifactAccessKey = env.String("ARTIFACT_ACCESS_KEY", "")
var ArtifactSecretKey = env.String("ARTIFACT_SECRET_KEY", "")
var ArtifactEndpoint = env.String("ARTIFACT_ENDPOINT", "")
var ArtifactPublicBase = env.String("ARTIFACT_PUBLIC_BASE", "")

// Provider relay settings.
var ProviderBaseUrl = env.String("PROVIDER_BASE_URL", "https://queue.fal.run")
var ProviderApiKey = env.String("PROVIDER_API_KEY", "")
var ProviderProxyUrl = env.String("PROVIDER_PROXY_URL", "")
var RelayTimeout = env.Int("RELAY_TIMEOUT", 0) // unit is second

var SyncFrequency = env.Int("SYNC_FREQUENCY", 10*60) // unit is second

var OptionMap map[string]string
var OptionMapRWMutex sync.RWMutex

var ItemsPerPage = 10

var RateLimitKeyExpirationDuration = 20 * time.Minute

var (
	GlobalApiRateLimitNum            = env.Int("GLOBAL_API_RATE_LIMIT", 180000)
	GlobalApiRateLimitDuration int64 = 30 * 60

	CriticalRateLimitNum            = 200
	CriticalRateLimitDuration int64 = 200 * 60
)

func init() {
	if os.Getenv("STRIPE_PRIVATE_KEY") != "" {
		StripePaymentEnabled = true
		StripePrivateKey = os.Getenv("STRIPE_PRIVATE_KEY")
		StripeEndpointSecret = os.Getenv("STRIPE_ENDPOINT_SECRET")
	}
	if ArtifactBucketName != "" && ArtifactAccessKey != "" && ArtifactSecretKey != "" && ArtifactEndpoint != "" {
		ArtifactStoreEnabled = true
	}
}
