// Package traffic fires a batch of concurrent GET requests at an HTTP
// endpoint and reports how the batch went.
//
// This package is the programmatic entry point to stampede's load generator.
//
// Basic Usage:
//
//	report := traffic.Run(context.Background(), traffic.DefaultOptions("http://localhost:3001"))
//
//	fmt.Printf("Succeeded: %d/%d\n", report.RequestsSucceeded, report.RequestsIssued)
//	fmt.Printf("Average:   %s\n", report.AverageSuccessLatency)
//	fmt.Printf("Total:     %v\n", report.TotalElapsed)
//
// Custom Batches:
//
//	opts := traffic.Options{
//	    BaseURL:  "https://api.example.com",
//	    Path:     "/status",
//	    Requests: 500,
//	    Timeout:  2 * time.Second,
//	    Headers:  map[string]string{"Authorization": "Bearer token"},
//	}
//	report := traffic.Run(ctx, opts)
//	for _, kind := range report.FailureKinds() {
//	    fmt.Printf("%s: %d (%s)\n", kind, report.Failures[kind], traffic.Describe(kind))
//	}
//
// Semantics:
//
// Every request is started at once and Run returns only after all of them
// have settled. Any HTTP response, whatever its status, counts as a
// success; only transport errors count as failures. Each request is bounded
// by Options.Timeout. Cancelling the context passed to Run does not abort a
// batch in flight.
//
// Run never returns an error. If aggregating the outcomes fails, the report
// has RequestsIssued set to 0 and FailureReason explains why.
//
// When no request succeeded, AverageSuccessLatency is undefined: it prints
// as "undefined" and encodes as null, never as NaN.
package traffic
