// Package settings resolves server-declared configuration entries into typed
// values. Entries fetched from the configuration store are merged with a
// build-time override table, which always wins, and coerced according to
// their declared type. Keys missing from the entry list fall back to a
// missing-key policy that keeps permission gates open.
package settings
