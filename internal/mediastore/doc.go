/*
Package mediastore enumerates the records of a media index in the
background.

A Scanner is bound to one category (audio, video or images), a RecordStore
and a Decoder. Scan claims the scanner, submits the enumeration to a worker
pool and returns at once. The worker queries the store, decodes each row in
order and reports to a Callback through a delivery Poster:

	OnStartScan
	OnUpdateProgress(index, total, item)   zero or more, throttled
	OnFinished(items)                      exactly once per started scan

Progress events are spaced by at least the configured update throttle and
are advisory; the authoritative result is the slice passed to OnFinished.
Cancel stops the scan after the current row and is permanent for that
Scanner.

A row that fails to decode ends the scan. When the callback also
implements ErrorHandler it receives the *DecodeError, followed by OnFinished
with the items decoded before the failure.

Column helpers such as DisplayName and AudioArtist read well-known columns
from a Row, and ItemDecoder produces the generic Item form.
*/
package mediastore
