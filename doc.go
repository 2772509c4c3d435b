// Package logtail follows a single growing log file and turns what is appended
// to it into records.
//
// A Runner owns one Follower, which reads the file in chunks and blocks on a
// Notifier (inotify, or fsnotify elsewhere) when it reaches the end. Chunks go
// into a Pipeline, whose Format carves complete records from the front of a
// StreamBuffer, filters them and reformats them for an Emitter.
//
// The file may be truncated, deleted or renamed while it is followed. After a
// deletion or rename the follower reopens the path and reads the new file from
// its start; a file that does not exist yet is polled for.
//
//	r, err := logtail.NewRunner(logtail.Config{Path: "/var/log/app.log"}, f, sink)
//	if err != nil {
//		log.Fatal(err)
//	}
//	r.Start()
//	defer r.Stop()
package logtail
