// Package ingest converts attached documents into markdown so they can be
// appended to a prompt or stored in the knowledge base.
package ingest
