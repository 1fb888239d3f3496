package docstore

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/docstore-boot/pkg/autoconfig"
	client "github.com/kart-io/docstore-boot/pkg/component/docstore"
	"github.com/kart-io/docstore-boot/pkg/condition"
	"github.com/kart-io/docstore-boot/pkg/environment"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
	"github.com/kart-io/docstore-boot/pkg/mapping"
	dsopts "github.com/kart-io/docstore-boot/pkg/options/docstore"
)

// SupportedDriver is the client driver version range the definitions are
// written against.
const SupportedDriver = ">= 1.12"

// ClassGuard gates every document store definition: a supported client must
// be linked and a connection string configured.
func ClassGuard() condition.Condition {
	return condition.All(
		condition.RequiresTypeVersion(TypeCluster, SupportedDriver),
		condition.RequiresProperty(dsopts.KeyConnectionString),
	)
}

// Definitions returns the document store and cache manager definitions in
// declaration order.
func Definitions() []autoconfig.Definition {
	defs := autoconfig.Guard(ClassGuard(),
		autoconfig.Definition{
			Name:      NameEnvironment,
			Type:      TypeEnvironment,
			Condition: condition.RequiresNoExistingComponent(TypeEnvironment),
			Factory:   newEnvironment,
		},
		autoconfig.Definition{
			Name:      NameCluster,
			Type:      TypeCluster,
			DependsOn: []string{NameEnvironment},
			Condition: condition.RequiresNoExistingComponent(TypeCluster),
			Factory:   newCluster,
		},
		autoconfig.Definition{
			Name:      NameDatabase,
			Type:      TypeDatabase,
			DependsOn: []string{NameCluster},
			Condition: condition.All(
				condition.RequiresProperty(dsopts.KeyBucketName),
				condition.RequiresSingleCandidate(TypeCluster),
			),
			Factory: newDatabase,
		},
		autoconfig.Definition{
			Name:      NameMappingContext,
			Type:      TypeMappingContext,
			Condition: condition.RequiresNoExistingComponent(TypeMappingContext),
			Factory:   newMappingContext,
		},
		autoconfig.Definition{
			Name:      NameConverter,
			Type:      TypeConverter,
			DependsOn: []string{NameMappingContext},
			Condition: condition.RequiresNoExistingComponent(TypeConverter),
			Factory:   newConverter,
		},
		autoconfig.Definition{
			Name:      NameIndexes,
			Type:      TypeIndexes,
			DependsOn: []string{NameMappingContext, NameDatabase},
			Condition: condition.All(
				condition.RequiresPropertyEnabled(dsopts.KeyAutoIndex, false),
				condition.RequiresSingleCandidate(TypeMappingContext),
				condition.RequiresSingleCandidate(TypeDatabase),
			),
			Factory: ensureIndexes,
		},
	)
	return append(defs, cacheDefinitions()...)
}

func newEnvironment(_ context.Context, r *autoconfig.Resolver) (any, error) {
	overrides, err := dsopts.EnvironmentOverrides(r.Properties())
	if err != nil {
		return nil, err
	}
	customizers := autoconfig.AllAs[environment.Customizer](r, TypeEnvironmentCustomizer)

	settings, err := environment.Build(environment.Defaults(), overrides, customizers...)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Document store environment built",
		"customizers", len(customizers), "explicit", settings.ExplicitFields())
	return settings, nil
}

func newCluster(ctx context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := dsopts.FromProperties(r.Properties())
	if err != nil {
		return nil, err
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, autoerrors.NewConfigurationError(errs[0].Error(), "docstore")
	}

	env, err := autoconfig.GetAs[environment.Settings](r, TypeEnvironment)
	if err != nil {
		return nil, err
	}

	return client.Connect(ctx, client.ConnectionRequest{
		ConnectionString: opts.ConnectionString,
		Username:         opts.Username,
		Password:         opts.Password,
		Environment:      env,
	})
}

func newDatabase(_ context.Context, r *autoconfig.Resolver) (any, error) {
	cluster, err := autoconfig.GetAs[*client.Cluster](r, TypeCluster)
	if err != nil {
		return nil, err
	}
	name := r.Properties().GetString(dsopts.KeyBucketName)
	if name == "" {
		return nil, autoerrors.NewConfigurationError("bucket name must not be empty", dsopts.KeyBucketName)
	}
	return cluster.Bucket(name), nil
}

func newMappingContext(_ context.Context, r *autoconfig.Resolver) (any, error) {
	opts, err := dsopts.FromProperties(r.Properties())
	if err != nil {
		return nil, err
	}

	mc, err := mapping.NewContext(mapping.Config{
		TypeKey:   opts.Data.TypeKey,
		Naming:    mapping.NamingStrategy(opts.Data.FieldNamingStrategy),
		AutoIndex: opts.Data.AutoIndex,
	})
	if err != nil {
		return nil, err
	}

	for _, def := range autoconfig.AllAs[mapping.EntityDefinition](r, TypeEntity) {
		if _, err := mc.Register(def.Entity, def.Collection); err != nil {
			return nil, err
		}
	}
	return mc, nil
}

func newConverter(_ context.Context, r *autoconfig.Resolver) (any, error) {
	mc, err := autoconfig.GetAs[*mapping.Context](r, TypeMappingContext)
	if err != nil {
		return nil, err
	}
	return mapping.NewConverter(mc), nil
}

func ensureIndexes(ctx context.Context, r *autoconfig.Resolver) (any, error) {
	mc, err := autoconfig.GetAs[*mapping.Context](r, TypeMappingContext)
	if err != nil {
		return nil, err
	}
	db, err := autoconfig.GetAs[*client.Database](r, TypeDatabase)
	if err != nil {
		return nil, err
	}

	done, err := mc.EnsureIndexes(ctx, db.Raw())
	if err != nil {
		return nil, autoerrors.ErrConnectionFailed.WithMessagef("could not create indexes in %s", db.Name()).WithCause(err)
	}
	logger.Infow("Indexes ensured", "database", db.Name(), "collections", done)
	return IndexedCollections(done), nil
}
