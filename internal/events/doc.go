// Package events provides types and interfaces for decoupled event dispatch.
//
// Services emit analysis request events without knowing which handlers will
// process them; the worker wiring registers a handler that turns each event
// into a durable queue row. This keeps the journal service free of any direct
// dependency on the job queue.
//
// The primary components are:
// - AnalysisRequestEvent: Represents a request to analyze a journal entry
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
