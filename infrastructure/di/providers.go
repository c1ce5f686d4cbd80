package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awssecretsmanager "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/google/wire"
	"go.uber.org/zap"

	"eventpipe/application/ingest"
	"eventpipe/application/lookup"
	"eventpipe/application/ports"
	"eventpipe/domain/event"
	"eventpipe/infrastructure/cache/redis"
	"eventpipe/infrastructure/config"
	"eventpipe/infrastructure/messaging/eventbridge"
	"eventpipe/infrastructure/search"
	"eventpipe/infrastructure/secrets"
	"eventpipe/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Cache       ports.EventCache
	Store       ports.DocumentStore
	Credentials ports.CredentialResolver
	Publisher   ports.PipelinePublisher
	Metrics     *observability.Metrics
	Tracer      *observability.Tracer
	Ingest      *ingest.Service
	Lookup      *lookup.Service
	Generator   *event.Generator
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideSSMClient,
	ProvideSecretsManagerClient,
	ProvideCloudWatchClient,
	ProvideEventBridgeClient,
	ProvideResolvedConfig,
	ProvideCredentialResolver,
	ProvideEventCache,
	ProvideDocumentStore,
	ProvidePipelinePublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideGenerator,
	ProvideIngestService,
	ProvideLookupService,
	wire.Struct(new(Container), "*"),
)

// ResolvedConfig is the configuration after SSM endpoint resolution. Kept as
// a distinct type so providers that need resolved endpoints can depend on it.
type ResolvedConfig struct {
	*config.Config
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideSSMClient creates an SSM client
func ProvideSSMClient(awsCfg aws.Config) *awsssm.Client {
	return awsssm.NewFromConfig(awsCfg)
}

// ProvideSecretsManagerClient creates a Secrets Manager client
func ProvideSecretsManagerClient(awsCfg aws.Config) *awssecretsmanager.Client {
	return awssecretsmanager.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideResolvedConfig fills endpoints left unset by the environment from
// SSM Parameter Store
func ProvideResolvedConfig(ctx context.Context, cfg *config.Config, ssmClient *awsssm.Client, logger *zap.Logger) (ResolvedConfig, error) {
	params := config.NewParameterStore(ssmClient, logger)
	if err := cfg.ResolveEndpoints(ctx, params); err != nil {
		return ResolvedConfig{}, err
	}
	return ResolvedConfig{cfg}, nil
}

// ProvideCredentialResolver creates the cache AUTH token resolver
func ProvideCredentialResolver(client *awssecretsmanager.Client, rc ResolvedConfig, logger *zap.Logger) ports.CredentialResolver {
	return secrets.NewResolver(client, rc.CacheAuthSecret, logger)
}

// ProvideEventCache creates the cache client
func ProvideEventCache(rc ResolvedConfig, creds ports.CredentialResolver, logger *zap.Logger) ports.EventCache {
	return redis.NewStore(rc.CacheAddr(), redis.Options{
		ConnectTimeout: rc.CacheConnectTimeout,
		ReadTimeout:    rc.CacheReadTimeout,
		Insecure:       rc.CacheInsecureTLS,
	}, creds, logger)
}

// ProvideDocumentStore creates the document store client
func ProvideDocumentStore(rc ResolvedConfig, awsCfg aws.Config, logger *zap.Logger) ports.DocumentStore {
	return search.NewClient(rc.SearchEndpoint, rc.EventIndex, rc.AWSRegion, awsCfg.Credentials, logger)
}

// ProvidePipelinePublisher creates the batch summary publisher
func ProvidePipelinePublisher(client *awseventbridge.Client, rc ResolvedConfig, logger *zap.Logger) ports.PipelinePublisher {
	return eventbridge.NewPublisher(client, rc.EventBusName, logger)
}

// ProvideMetrics creates the metrics publisher; disabled metrics still yield
// a usable no-op instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(cfg.MetricsNamespace(), nil)
	}
	return observability.NewMetrics(cfg.MetricsNamespace(), client)
}

// ProvideTracer creates the tracer, nil when tracing is disabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer(cfg.ProjectName)
}

// ProvideGenerator creates the synthetic record generator
func ProvideGenerator() *event.Generator {
	return event.NewGenerator()
}

// ProvideIngestService creates the ingest orchestrator
func ProvideIngestService(
	store ports.DocumentStore,
	cache ports.EventCache,
	publisher ports.PipelinePublisher,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *ingest.Service {
	return ingest.NewService(store, cache, publisher, metrics, tracer, logger)
}

// ProvideLookupService creates the lookup orchestrator
func ProvideLookupService(
	cache ports.EventCache,
	store ports.DocumentStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *lookup.Service {
	return lookup.NewService(cache, store, metrics, logger)
}
