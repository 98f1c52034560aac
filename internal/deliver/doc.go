// Package deliver drains the minidump queue into a remote collector.
//
// Runner owns the pull loop: peek the head, upload it, remove it. Transient
// upload failures leave the head in place and the loop waits before trying
// again, so every report gets at least one delivery attempt. Permanent
// rejections and successful uploads both advance the queue. When a pair
// cannot be deleted the queue skips it; Runner remembers skipped pairs for the
// life of the process so a report is not uploaded twice when a later listing
// returns it again.
//
// HTTPUploader posts a multipart form containing the minidump and its event
// metadata. Outcomes are recorded in an optional Ledger.
package deliver
