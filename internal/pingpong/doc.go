// Package pingpong drives the threading layer with the two workloads its
// callers lean on hardest: synchronous request/reply between thread pairs,
// and mixed reader/writer traffic on one lock.
//
// [Run] pairs client and server threads. Each client calls its server
// rounds times with an increment request; the server answers to the
// request's origin mailbox with the payload plus one. [RWStress] runs reader
// and writer threads against one lock and counts exclusion violations.
//
// Both return a report whose RunID also tags every log line of the run.
package pingpong
