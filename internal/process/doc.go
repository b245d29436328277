// Package process runs one external command for one step invocation.
//
// The supervisor feeds the document to the child's standard input while draining standard output and standard
// error into separate buffers. The three copies run concurrently with each other and with the child: a child that
// fills its output pipe blocks on write, and a parent that finishes writing stdin before reading stdout would
// deadlock against it.
//
// Children run in their own process group. Cancelling the context kills the whole group, so helpers spawned by a
// step script do not outlive the invocation.
package process
