// Package launcher starts child processes connected through pipes.
//
// A ChildProcess holds the parent's ends of the child's standard input and
// standard output. The caller owns those descriptors and the process: it
// must eventually close the descriptors and reap the child with Wait.
package launcher
