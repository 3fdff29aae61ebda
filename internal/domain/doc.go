// Package domain contains the core entities of the application: users,
// journals, the durable analysis jobs that drive background processing,
// and the canonical analysis records produced from analyzer output.
// Entities validate themselves; persistence lives in the store packages.
package domain
