package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/graphql-go/graphql"
	"github.com/iancoleman/strcase"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// argument describes one input of an operation; typ is a key of schemaBuilder.inputs.
type argument struct {
	name         string
	description  string
	typ          string
	required     bool
	defaultValue interface{}
}

// operation is one root field: what it takes, what it returns and the handler producing it.
// output names an entity type, wrapped in brackets for a list ("[Client]").
type operation struct {
	name        string
	description string
	args        []argument
	output      string
	resolve     func(ctx context.Context, args arguments) (interface{}, error)
}

// arguments are the values the caller supplied. Omitted and null arguments are absent.
type arguments map[string]interface{}

func (a arguments) String(name string) string {
	s, _ := a.Lookup(name)
	return s
}

func (a arguments) Lookup(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}

type schemaBuilder struct {
	store   store.Store
	logger  *zap.Logger
	metrics *metrics

	inputs  map[string]graphql.Input
	outputs map[string]graphql.Output
}

func generateSchema(st store.Store, logger *zap.Logger, m *metrics) (*graphql.Schema, error) {
	b := &schemaBuilder{
		store:   st,
		logger:  logger,
		metrics: m,
		inputs: map[string]graphql.Input{
			"id":                    graphql.ID,
			"string":                graphql.String,
			"project_status":        generateEnum("project_status", store.Statuses),
			"project_status_update": generateEnum("project_status_update", store.Statuses),
		},
	}

	clientType := generateClientType()
	b.outputs = map[string]graphql.Output{
		clientType.Name(): clientType,
	}
	projectType := b.generateProjectType(clientType)
	b.outputs[projectType.Name()] = projectType

	r := &resolver{store: st}

	queries, err := b.mergeFields(r.clientQueries(), r.projectQueries())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate queries")
	}
	mutations, err := b.mergeFields(r.clientMutations(), r.projectMutations())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate mutations")
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queries}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutations}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new schema")
	}

	return &schema, nil
}

// mergeFields generates each operation table on its own and merges the results.
func (b *schemaBuilder) mergeFields(tables ...[]operation) (graphql.Fields, error) {
	fields := graphql.Fields{}

	for _, ops := range tables {
		generated, err := b.generateFields(ops)
		if err != nil {
			return nil, err
		}
		for name := range generated {
			if _, ok := fields[name]; ok {
				return nil, fmt.Errorf("operation %q declared twice", name)
			}
		}
		if err := mergo.Merge(&fields, generated); err != nil {
			return nil, errors.Wrap(err, "failed to merge gql fields")
		}
	}

	return fields, nil
}

func (b *schemaBuilder) generateFields(ops []operation) (graphql.Fields, error) {
	fields := make(graphql.Fields, len(ops))

	for _, op := range ops {
		output, err := b.outputType(op.output)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %q", op.name)
		}
		args, err := b.generateArguments(op.args)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %q", op.name)
		}

		resolve := op.resolve
		fields[op.name] = &graphql.Field{
			Type:        output,
			Description: op.description,
			Args:        args,
			Resolve: b.instrument(op.name, func(p graphql.ResolveParams) (interface{}, error) {
				return resolve(p.Context, arguments(p.Args))
			}),
		}
	}

	return fields, nil
}

func (b *schemaBuilder) outputType(name string) (graphql.Output, error) {
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		elem, err := b.outputType(name[1 : len(name)-1])
		if err != nil {
			return nil, err
		}
		return graphql.NewList(elem), nil
	}

	typ, ok := b.outputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown output type %q", name)
	}
	return typ, nil
}

func (b *schemaBuilder) generateArguments(args []argument) (graphql.FieldConfigArgument, error) {
	fieldArgs := make(graphql.FieldConfigArgument, len(args))

	for _, arg := range args {
		gqlType, ok := b.inputs[arg.typ]
		if !ok {
			return nil, fmt.Errorf("unknown argument type %q for %q", arg.typ, arg.name)
		}
		if arg.required {
			gqlType = graphql.NewNonNull(gqlType)
		}

		fieldArgs[arg.name] = &graphql.ArgumentConfig{
			Type:         gqlType,
			Description:  arg.description,
			DefaultValue: arg.defaultValue,
		}
	}

	return fieldArgs, nil
}

// instrument counts the outcome of every resolver call and logs failures.
func (b *schemaBuilder) instrument(name string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		result, err := fn(p)
		b.metrics.observeOperation(name, err)
		if err != nil {
			b.logger.Warn("operation failed", zap.String("operation", name), zap.Error(err))
			return nil, err
		}
		return result, nil
	}
}

func generateClientType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: strcase.ToCamel(clientEntity),
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.ID},
			"name":  &graphql.Field{Type: graphql.String},
			"email": &graphql.Field{Type: graphql.String},
			"phone": &graphql.Field{Type: graphql.String},
		},
	})
}

func (b *schemaBuilder) generateProjectType(clientType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: strcase.ToCamel(projectEntity),
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.ID},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"client": &graphql.Field{
				Type: clientType,
				Resolve: b.instrument("Project.client", func(p graphql.ResolveParams) (interface{}, error) {
					project, ok := p.Source.(*store.Project)
					if !ok {
						return nil, errors.New("malformed source")
					}
					return nullable[store.Client](b.store.GetClient(p.Context, project.ClientID))
				}),
			},
		},
	})
}

func generateEnum(name string, values map[string]string) *graphql.Enum {
	enumValues := make(graphql.EnumValueConfigMap, len(values))

	for key, val := range values {
		enumValues[key] = &graphql.EnumValueConfig{Value: val}
	}

	return graphql.NewEnum(graphql.EnumConfig{
		Name:   strcase.ToCamel(name),
		Values: enumValues,
	})
}

// nullable turns a missing document into a GraphQL null.
func nullable[T any](v *T, err error) (interface{}, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}
