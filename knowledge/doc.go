// Package knowledge is the crew's long-lived knowledge store. Documents are
// split into token windows, embedded and kept in a chromem-go collection;
// queries return the most similar chunks. MemoryStore is a dependency free
// keyword store used when no embedder is configured.
package knowledge
