// Package model holds the entities, enumerations and errors of the ride services.
//
// Statuses are closed enumerations. Unknown values are rejected with a
// Validation error when they are parsed or decoded from json, so nothing
// outside the enumeration reaches the store.
//
// Errors are *Error values with one of four kinds. KindOf classifies any error,
// everything that is not a *Error counts as Internal.
package model
