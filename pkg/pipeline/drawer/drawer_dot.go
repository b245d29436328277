package drawer

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/pipeline/measure"
)

// DOTDrawer writes the pipeline graph in the Graphviz DOT language.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	fileName string
}

// NewDOTDrawer creates a drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddStep adds a vertex. Adding an existing vertex is a no-op.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds an edge. Adding an existing edge is a no-op.
func (d *DOTDrawer) AddLink(parentName, childrenName string) error {
	return d.addLink(parentName, childrenName)
}

func (d *DOTDrawer) addLink(parentName, childrenName string, opts ...func(*graph.EdgeProperties)) error {
	err := d.graph.AddEdge(parentName, childrenName, opts...)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw writes the graph to the drawer file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	err = d.Write(file)
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to write dot file %s", d.fileName)
	}

	return errors.Wrap(file.Close(), "unable to close dot file")
}

// Write renders the graph to wrt.
func (d *DOTDrawer) Write(wrt io.Writer) error {
	return dot(d.graph, wrt)
}

// SetTotalTime labels a step with the time elapsed since startTime.
func (d *DOTDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrapf(err, "unable to get %s vertex properties", stepName)
	}

	properties.Attributes["xlabel"] = round(time.Since(startTime)).String()

	return nil
}

const maxRGB = 240

// gradient maps a fraction in [0, 1] from blue to red.
func gradient(fraction float64) (string, error) {
	fraction = math.Max(0, math.Min(1, fraction))
	red := uint8(maxRGB * fraction)
	blue := uint8(maxRGB - maxRGB*fraction)

	col, err := colors.RGB(red, 0, blue)
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return col.ToHEX().String(), nil
}

// AddMeasure labels every stage with its average duration and colours links by their transport time, the slowest
// in red.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	all := msr.AllMetrics()

	var elapsed []time.Duration
	for _, step := range all {
		for _, avg := range step.AVGTransportDuration() {
			elapsed = append(elapsed, avg)
		}
	}
	if len(elapsed) == 0 {
		return nil
	}
	minValue, maxValue := slices.Min(elapsed), slices.Max(elapsed)

	for name, step := range all {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			continue
		}

		if avg := step.AVGDuration(); avg != 0 {
			properties.Attributes["xlabel"] = avg.String()
		}
		if total := step.GetTotalDuration(); total > 0 {
			properties.Attributes["xlabel"] += ", end: " + total.String()
		}

		for inputStep, avg := range step.AVGTransportDuration() {
			fraction := 1.0
			if maxValue > minValue {
				fraction = float64(avg-minValue) / float64(maxValue-minValue)
			}

			col, err := gradient(fraction)
			if err != nil {
				return err
			}

			err = d.graph.UpdateEdge(inputStep, name,
				graph.EdgeAttribute("label", avg.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", col),
			)
			if err != nil && !errors.Is(err, graph.ErrEdgeNotFound) {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

// AddChain adds the step chain under parent. Each vertex shows the runs, failures and average duration of its step.
func (d *DOTDrawer) AddChain(parent string, stats []measure.StepStats) error {
	prev := parent

	for _, step := range stats {
		col, err := gradient(step.FailureRatio())
		if err != nil {
			return err
		}

		vertex := fmt.Sprintf("%d. %s", step.Ordinal+1, step.Name)
		err = d.graph.AddVertex(vertex,
			graph.VertexAttribute("shape", "box"),
			graph.VertexAttribute("color", col),
			graph.VertexAttribute("xlabel", fmt.Sprintf("runs: %d, failed: %d, skipped: %d, avg: %s",
				step.Runs(),
				step.Failed(),
				step.Outcomes[executor.OutcomeSkipped],
				step.AVGDuration(),
			)),
		)
		if err != nil {
			return errors.Wrapf(err, "unable to add step %s", step.Name)
		}

		if prev != "" {
			err = d.addLink(prev, vertex, graph.EdgeAttribute("style", "dashed"))
			if err != nil {
				return err
			}
		}
		prev = vertex
	}

	return nil
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(time.Millisecond)
	}

	return d.Round(time.Microsecond)
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           any
	Target           any
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer) error {
	desc, err := generateDOT(g)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T]) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	// sorted so the same graph always renders the same file
	vertices := make([]K, 0, len(adjacencyMap))
	for vertex := range adjacencyMap {
		vertices = append(vertices, vertex)
	}
	slices.SortFunc(vertices, func(a, b K) int {
		return compareKeys(a, b)
	})

	for _, vertex := range vertices {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)
		sourceAttributes := make(map[string]string, len(sourceProperties.Attributes))
		for k, v := range sourceProperties.Attributes {
			sourceAttributes[k] = v
		}

		if xlabel, ok := sourceAttributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)

			delete(sourceAttributes, "xlabel")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceAttributes,
			HTMLAttributes:   htmlAttributes,
		})

		targets := make([]K, 0, len(adjacencyMap[vertex]))
		for target := range adjacencyMap[vertex] {
			targets = append(targets, target)
		}
		slices.SortFunc(targets, func(a, b K) int {
			return compareKeys(a, b)
		})

		for _, target := range targets {
			edge := adjacencyMap[vertex][target]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func compareKeys[K comparable](a, b K) int {
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
