// Package api implements the HTTP handlers for the journaling API: auth,
// journal CRUD, analysis queries, and the manual job recovery endpoint.
// Handlers translate between HTTP and the service layer and never touch the
// stores directly.
package api
