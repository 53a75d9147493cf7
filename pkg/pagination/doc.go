// Package pagination collects every page of a paginated API resource
// concurrently.
//
// The collector probes page 1 to learn the total page count, then
// spawns one fetch task per remaining page. All tasks go through the
// client's shared rate gate, so concurrency is bounded by request rate
// rather than by a worker count. Results are merged back into page
// order regardless of completion order.
//
// Example usage:
//
//	collector := pagination.NewCollector(apiClient)
//	pages, err := collector.Collect(ctx, "cursus_users?filter[campus_id]=31")
//
// A collection either fully succeeds or fails: if any page fails
// fatally or exhausts its retries, Collect returns a CollectError
// naming every failed page, and the partial payloads are discarded.
// Sibling fetches still in flight when a page fails are not cancelled;
// they run to completion and their results are dropped with the rest.
package pagination
