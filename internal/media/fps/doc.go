// Package fps determines a video's native frame rate through an ordered
// strategy chain: ffprobe, then an OS metadata tool, then the sentinel 0.0.
// Detection is best-effort and never fails; results can differ across
// machines depending on which tools are installed.
package fps
