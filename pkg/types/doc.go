/*
Package types holds the core moorcore data model: object identity (Obj),
interned verb/property names (Symbol), the dynamic value type (Var), and the
verb/property definition records relations store values of. Nothing in this
package touches storage or transactions; it is pure value types and the
typed errors that arise from misusing them.
*/
package types
