// Package driven defines the driven-side ports of the census: the feed
// enumerator and the record sink. The services package drives these;
// adapters and connectors implement them.
package driven
