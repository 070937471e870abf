/*
Package relation implements the transactional, MVCC core of one relation:
domain -> codomain mappings forked cheaply for each writer, checked for
conflicts against a Resolver, and applied atomically alongside sibling
relations through a Coordinator.

A Relation owns one persistent Index (backed by a hashicorp/go-immutable-radix
tree) plus the storage.Provider it is durable against. Readers see a
point-in-time snapshot of the Index; writers fork it in O(log n) through a
Txn, record their intended inserts/updates/deletes as a working set, and only
touch the canonical Index again at commit time. Nothing here knows about
objects, verbs or properties; pkg/worldstate supplies the codecs and secondary
key functions that give a Relation its domain meaning.
*/
package relation
