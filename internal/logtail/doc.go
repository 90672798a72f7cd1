// Package logtail reads the tail of the client log file and splits zap
// console lines into columns for display.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded by
// the number of lines requested rather than by the file size:
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// A missing file is not an error; the client may not have logged yet.
//
// # Parsing
//
// The console encoder writes tab-separated columns:
//
//	time  LEVEL  rewear.<component>  caller  message  {fields}
//
// Parse recognises that layout and fills an Entry. The component is the
// logger name with the "rewear." prefix dropped. Lines that do not start
// with a time and level column (stack traces, panics) keep their text in
// Message so they can still be shown.
package logtail
