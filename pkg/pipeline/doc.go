// Package pipeline moves values between concurrent stages connected by channels.
//
// A pipeline starts with a root step that produces values, goes through one-to-one steps that may run their
// function on several goroutines, can be split into branches by predicate, and ends with sinks. Every stage starts
// as soon as it is added. Run waits for all of them, and the first error cancels the others.
//
// Options implementing model.PipelineOption are notified when stages are prepared and every time a value moves,
// which is how measures and drawings are collected.
package pipeline
