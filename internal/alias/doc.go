// Package alias caches player display names in front of the upstream
// player lookup. Lookups go through an in-process TTL cache, then an
// optional Redis cache shared between runs, then the upstream API.
package alias
