// Package checkend is the official Checkend SDK for Go.
//
// It captures application errors, enriches them with contextual metadata,
// scrubs sensitive fields, and delivers the resulting notices to the Checkend
// ingestion service. Delivery is bounded and non-blocking: notices pass
// through an in-memory FIFO queue that is drained by a single in-flight
// transmission at a time, and nothing in the pipeline ever propagates a
// failure back into the host application.
//
// Basic usage:
//
//	client, err := checkend.NewClient(checkend.ClientOptions{
//		APIKey:      "project-api-key",
//		Environment: "production",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := doWork(); err != nil {
//		client.Notify(err)
//	}
//	client.Flush(2 * time.Second)
//
// A process-wide default client is available through Init and the matching
// package-level functions for applications that prefer not to thread a client
// through their code.
package checkend
