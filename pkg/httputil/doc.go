// Package httputil provides the HTTP plumbing shared by drawbridge's small
// web lookups (currently the public-address lookup in package checkip).
//
// # Client
//
// [NewClient] returns an *http.Client with a bounded timeout. [Get] performs a
// GET and classifies failures: network errors and 5xx responses are wrapped in
// [RetryableError], anything else is returned as is.
//
// # Retry
//
// [Retry] runs an operation with exponential backoff, retrying only errors
// wrapped in [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    body, err = httputil.Get(ctx, client, url)
//	    return err
//	})
package httputil
