// Package exiftool drives a long-running exiftool process in "stay-open"
// mode: one child, started once, fed newline-delimited argument scripts on
// its standard input for as long as the caller needs metadata extracted.
//
// # Architecture
//
// The package is organized around two collaborators:
//
//   - Supervisor: owns the child process, the pending-command queue, and
//     the per-channel await/ready framing that demultiplexes exiftool's
//     interleaved stdout/stderr into one response per command.
//   - Submitter-facing API: Supervisor.Command assigns a unique id, builds
//     the echo/execute script exiftool requires, and enqueues it.
//
// # Quick start
//
//	sup := exiftool.NewSupervisor(exiftool.Config{HelperPath: "/usr/bin/exiftool"})
//	if err := sup.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer sup.Kill()
//
//	id := sup.Command([]string{"-json", "-n", "photo.jpg"})
//	for ev := range sup.Events() {
//	    if ev.Type == exiftool.EventCommandCompleted && ev.CommandID == id {
//	        fmt.Println(string(ev.Stdout))
//	        break
//	    }
//	}
//
// # Concurrency
//
// Exactly one command is in flight at a time, FIFO order, because exiftool
// itself is single-threaded in stay-open mode. Supervisor is safe for
// concurrent use; all its event delivery happens on the Events() channel.
package exiftool
