// Package repository persists drivers, passengers and rides through the router.
//
// Each entity kind is a hash collection per region ("drivers:EU"), the value
// is the json encoded entity. Drivers have a second structure, the geo index
// "drivers:geo:EU" that maps driver ids to positions.
//
// Reads are routed with the consistency level passed by the caller. Writes
// always go to the region's master, a write to a replica would be lost.
package repository
