// Package uploader assembles bulk upload batches and tracks their
// asynchronous analysis.
//
// A bulk-upload response returns before captioning has necessarily finished,
// so Poller keeps querying the backend's recent-files status until every
// item in the batch has been analyzed or the attempt budget runs out. The
// poller is a small state machine with a cancellable timer; starting a new
// batch supersedes any loop still waiting on the previous one.
package uploader
