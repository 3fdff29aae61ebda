// Package worker contains the background processing loop for analysis jobs.
//
// A Poller repeatedly fetches batches of pending jobs from the durable queue,
// claims them one at a time, and hands each claimed job to a Processor. The
// claim step is an atomic conditional update in the store, so any number of
// pollers can run against the same database without coordinating with each
// other; at most one wins each job.
//
// The package also provides JobEnqueueHandler, the event handler that turns
// analysis request events emitted by the journal service into queue rows.
package worker
