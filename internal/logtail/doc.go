// Package logtail reads the tail of courier's log file and parses logrus
// text lines for the log pane.
//
// Read keeps a ring buffer of maxLines so memory stays bounded regardless of
// file size. A missing file reads as empty.
//
// Parse understands the key=value layout logrus' TextFormatter writes:
//
//	time="2026-10-19 14:32:15" level=warning msg="refresh failed" order=o-1
//
// Quoted values are unquoted with Go string syntax. Lines that do not look
// like key=value pairs come back with only Raw and Message set, so JSON
// output or stray text still shows up in the pane.
package logtail
