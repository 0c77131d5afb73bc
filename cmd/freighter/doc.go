// Command freighter uploads files to S3-compatible storage with bounded
// concurrency, automatic retries, and a persistent upload journal.
package main
