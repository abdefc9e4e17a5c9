package main

import (
	"context"

	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

const (
	clientEntity  = "client"
	projectEntity = "project"
)

// resolver binds the operation tables to the data store.
type resolver struct {
	store store.Store
}

func typeName(entity string) string {
	return strcase.ToCamel(entity)
}

func listOf(entity string) string {
	return "[" + typeName(entity) + "]"
}

func mutationName(verb, entity string) string {
	return strcase.ToLowerCamel(verb + "_" + entity)
}

var idArgument = argument{name: "id", typ: "id", required: true}

func (r *resolver) clientQueries() []operation {
	return []operation{
		{
			name:        inflection.Plural(clientEntity),
			description: "All clients.",
			output:      listOf(clientEntity),
			resolve: func(ctx context.Context, _ arguments) (interface{}, error) {
				return r.store.ListClients(ctx)
			},
		},
		{
			name:        clientEntity,
			description: "The client with the given id, or null.",
			args:        []argument{{name: "id", typ: "id"}},
			output:      typeName(clientEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				id, ok := args.Lookup("id")
				if !ok {
					return nil, nil
				}
				return nullable[store.Client](r.store.GetClient(ctx, id))
			},
		},
	}
}

func (r *resolver) projectQueries() []operation {
	return []operation{
		{
			name:        inflection.Plural(projectEntity),
			description: "All projects.",
			output:      listOf(projectEntity),
			resolve: func(ctx context.Context, _ arguments) (interface{}, error) {
				return r.store.ListProjects(ctx)
			},
		},
		{
			name:        projectEntity,
			description: "The project with the given id, or null.",
			args:        []argument{{name: "id", typ: "id"}},
			output:      typeName(projectEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				id, ok := args.Lookup("id")
				if !ok {
					return nil, nil
				}
				return nullable[store.Project](r.store.GetProject(ctx, id))
			},
		},
	}
}

func (r *resolver) clientMutations() []operation {
	return []operation{
		{
			name: mutationName("add", clientEntity),
			args: []argument{
				{name: "name", typ: "string", required: true},
				{name: "email", typ: "string", required: true},
				{name: "phone", typ: "string", required: true},
			},
			output: typeName(clientEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				return nullable[store.Client](r.store.CreateClient(ctx, &store.Client{
					Name:  args.String("name"),
					Email: args.String("email"),
					Phone: args.String("phone"),
				}))
			},
		},
		{
			name:        mutationName("delete", clientEntity),
			description: "Removes a client. Projects referencing it are kept.",
			args:        []argument{idArgument},
			output:      typeName(clientEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				return nullable[store.Client](r.store.DeleteClient(ctx, args.String("id")))
			},
		},
	}
}

func (r *resolver) projectMutations() []operation {
	return []operation{
		{
			name: mutationName("add", projectEntity),
			args: []argument{
				{name: "name", typ: "string", required: true},
				{name: "description", typ: "string", required: true},
				{name: "status", typ: "project_status", defaultValue: store.StatusNotStarted},
				{name: "clientId", typ: "string", required: true},
			},
			output: typeName(projectEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				return nullable[store.Project](r.store.CreateProject(ctx, &store.Project{
					Name:        args.String("name"),
					Description: args.String("description"),
					Status:      args.String("status"),
					ClientID:    args.String("clientId"),
				}))
			},
		},
		{
			name:   mutationName("delete", projectEntity),
			args:   []argument{idArgument},
			output: typeName(projectEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				return nullable[store.Project](r.store.DeleteProject(ctx, args.String("id")))
			},
		},
		{
			name:        mutationName("update", projectEntity),
			description: "Overwrites only the fields present in the request.",
			args: []argument{
				idArgument,
				{name: store.FieldName, typ: "string"},
				{name: store.FieldDescription, typ: "string"},
				{name: store.FieldStatus, typ: "project_status_update"},
			},
			output: typeName(projectEntity),
			resolve: func(ctx context.Context, args arguments) (interface{}, error) {
				update := store.ProjectUpdate{}
				for _, field := range []string{store.FieldName, store.FieldDescription, store.FieldStatus} {
					if v, ok := args.Lookup(field); ok {
						update[field] = v
					}
				}
				return nullable[store.Project](r.store.UpdateProject(ctx, args.String("id"), update))
			},
		},
	}
}
