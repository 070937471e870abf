// Package worldstate implements the object-oriented transaction API
// over the generic relations in pkg/relation: object lifecycle, parent and
// location graph maintenance, property inheritance, and verb definition and
// resolution.
package worldstate
