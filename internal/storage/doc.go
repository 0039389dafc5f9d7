// Package storage provides the persistence bridge behind the entity managers.
//
// Two implementations exist: a single JSON document file (the default,
// matching a small single-clinician deployment) and a SQLite snapshot table.
// Both expose the same whole-snapshot Get/Set contract: a collection is
// always written as a unit, never partially, so interrupted writes leave
// either the previous or the next complete snapshot.
package storage
