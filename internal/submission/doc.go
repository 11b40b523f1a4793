// Package submission orchestrates one URL submission: it normalizes the URL list,
// authenticates the Google service account, notifies IndexNow, publishes the Indexing
// API batch and folds both outcomes into a single Result.
//
// IndexNow failures are recorded in the message but never fail the submission; a
// failed batch publish always does.
package submission
