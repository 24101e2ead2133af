/*
Package lsmkv is a pure-Go embedded, durable, ordered key/value store built
on a log-structured merge tree.

Writes land in an in-memory sorted table backed by a write-ahead log, and
are later flushed to immutable, Bloom-filtered sorted table files on disk.
A single background worker merges the level-0 table files into level 1
once more than four of them accumulate, bounding the number of files a read
has to consult. Files at level 1 and deeper are never compacted further.

# Usage

	db, err := lsmkv.Open(lsmkv.DefaultOptions("/path/to/db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Put(lsmkv.WriteOptions{}, []byte("k"), []byte("v")); err != nil {
		log.Fatal(err)
	}
	value, err := db.Get(lsmkv.ReadOptions{}, []byte("k"))

# Concurrency

A DB instance is safe for concurrent use by multiple goroutines.

# Durability

Writes are durable once WriteOptions.Sync is honored on the underlying
write-ahead log; without it, the OS page cache may still hold unflushed
data across a crash.
*/
package lsmkv
