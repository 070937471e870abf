/*
Package storage provides the durable backing store relations read through
and write to. Provider is the narrow persistence contract;
BoltProvider implements it on top of go.etcd.io/bbolt with one bucket per
relation, and MemProvider is a map-backed implementation for tests. Neither
implementation understands transactions, MVCC, or conflicts; that is
layered above in pkg/relation.
*/
package storage
