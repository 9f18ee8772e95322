// Package notetree provides the minimal note lookup the tab manager needs:
// does a note id exist, and what is its title and type. It is seeded from a
// YAML file and can be updated at runtime.
package notetree
