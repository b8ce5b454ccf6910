// Package events carries progress and status notifications out of the core.
//
// Recording sessions and export tasks publish structured events keyed by
// their identifiers; the Bus fans each event out to every registered
// publisher. The frontend boundary, logging, and push notifications all
// attach here rather than reaching into the state machines.
package events
