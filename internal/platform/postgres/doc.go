// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces (repositories) defined in the internal/store package.
// It handles the details of query execution, error mapping, and data mapping
// between domain entities and database records, including the conditional
// UPDATE that gives analysis jobs their claim-once semantics.
package postgres
