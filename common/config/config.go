package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelforge/reelforge/common/env"
)

var SystemName = "ReelForge"
var ServerAddress = "http://localhost:3000"

// ServiceName and InstanceId are attached to every JSON log line so that
// multiple instances can be told apart in the aggregated log stream.
var ServiceName = env.String("SERVICE_NAME", "reelforge-api")
var InstanceId = env.String("INSTANCE_ID", uuid.New().String()[:8])

var SessionSecret = uuid.New().String()

var OptionMap map[string]string
var OptionMapRWMutex sync.RWMutex

var ItemsPerPage = 10
var MaxRecentItems = 100

var PasswordLoginEnabled = true
var PasswordRegisterEnabled = true
var RegisterEnabled = true

var DebugEnabled = strings.ToLower(os.Getenv("DEBUG")) == "true"
var DebugSQLEnabled = strings.ToLower(os.Getenv("DEBUG_SQL")) == "true"
var MemoryCacheEnabled = strings.ToLower(os.Getenv("MEMORY_CACHE_ENABLED")) == "true"

var LogConsumeEnabled = true

var IsMasterNode = os.Getenv("NODE_TYPE") != "slave"

var SyncFrequency = env.Int("SYNC_FREQUENCY", 10*60) // unit is second

// LLM provider settings. Provider is "openai" (any OpenAI-compatible
// endpoint) or "bedrock" (Anthropic models via AWS Bedrock).
var LLMProvider = env.String("LLM_PROVIDER", "openai")
var LLMBaseURL = env.String("LLM_BASE_URL", "https://api.openai.com")
var LLMApiKey = os.Getenv("LLM_API_KEY")
var LLMModel = env.String("LLM_MODEL", "gpt-4o-mini")
var LLMProxyURL = os.Getenv("LLM_PROXY_URL")

var AwsRegion = env.String("AWS_REGION", "us-east-1")
var AwsAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
var AwsSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
var BedrockModelId = env.String("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20240620-v1:0")

// Creatomate renderer settings.
var CreatomateBaseURL = env.String("CREATOMATE_BASE_URL", "https://api.creatomate.com")
var CreatomateApiKey = os.Getenv("CREATOMATE_API_KEY")
var CreatomateWebhookSecret = os.Getenv("CREATOMATE_WEBHOOK_SECRET")

// Clerk-issued session JWTs are accepted alongside local access tokens.
var ClerkJWTPublicKey = os.Getenv("CLERK_JWT_PUBLIC_KEY") // PEM-encoded RSA public key
var ClerkIssuer = env.String("CLERK_ISSUER", "")

var StripeEndpointSecret = os.Getenv("STRIPE_ENDPOINT_SECRET")

// R2/S3 bucket for training-data artifacts. Capture is disabled when the
// credentials are missing.
var R2BucketName = env.String("R2_BUCKET_NAME", "reelforge-training")
var R2AccessKey = os.Getenv("R2_ACCESS_KEY")
var R2SecretKey = os.Getenv("R2_SECRET_KEY")
var R2Endpoint = os.Getenv("R2_ENDPOINT")

var OutboundProxyURL = os.Getenv("OUTBOUND_PROXY_URL")

var InitialRootToken = os.Getenv("INITIAL_ROOT_TOKEN")

// All duration's unit is seconds
// Shouldn't larger then RateLimitKeyExpirationDuration
var (
	GlobalApiRateLimitNum            = env.Int("GLOBAL_API_RATE_LIMIT", 180000)
	GlobalApiRateLimitDuration int64 = 30 * 60

	GlobalWebRateLimitNum            = env.Int("GLOBAL_WEB_RATE_LIMIT", 6000)
	GlobalWebRateLimitDuration int64 = 30 * 60

	CriticalRateLimitNum            = 200
	CriticalRateLimitDuration int64 = 200 * 60
)

var RateLimitKeyExpirationDuration = 20 * time.Minute
