// Package drawer renders a run as a Graphviz DOT graph: the dataflow stages, and the step chain coloured from blue
// to red as its failure ratio grows.
package drawer
