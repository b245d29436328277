// Package model provides the data structures shared by the pipeline packages.
// It defines the documents flowing through a step chain, the immutable step descriptors loaded from a layout,
// the result of a single step invocation, and the step/option types of the dataflow engine that moves documents
// between a source and its sinks.
package model
