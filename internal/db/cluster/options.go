package cluster

import (
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db/database"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	database       database.DB
	databaseIO     DatabaseIO
	nameProvider   NameProvider
	schemaProvider SchemaProvider
	sleeper        clock.Sleeper
}

// WithDatabase sets the database on the options
func WithDatabase(database database.DB) Option {
	return func(options *options) {
		options.database = database
	}
}

// WithDatabaseIO sets the database IO on the options
func WithDatabaseIO(databaseIO DatabaseIO) Option {
	return func(options *options) {
		options.databaseIO = databaseIO
	}
}

// WithNameProvider sets the name provider on the options
func WithNameProvider(nameProvider NameProvider) Option {
	return func(options *options) {
		if nameProvider != nil {
			options.nameProvider = nameProvider
		}
	}
}

// WithSchemaProvider sets the schema provider on the options
func WithSchemaProvider(schemaProvider SchemaProvider) Option {
	return func(options *options) {
		options.schemaProvider = schemaProvider
	}
}

// WithSleeper sets the sleeper on the options
func WithSleeper(sleeper clock.Sleeper) Option {
	return func(options *options) {
		if sleeper != nil {
			options.sleeper = sleeper
		}
	}
}

// Create a options instance with default values.
func newOptions() *options {
	return &options{
		databaseIO:   databaseIO{},
		nameProvider: &SQLiteNameProvider{},
		sleeper:      clock.DefaultSleeper,
	}
}
