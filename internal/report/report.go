// Package report runs the exploratory analysis over a frame and assembles the
// dashboard: text, tables, charts and test statistics in a fixed order.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/taxistats/internal/analysis"
	"github.com/jgoulah/taxistats/internal/chart"
	"github.com/jgoulah/taxistats/internal/dataset"
)

// Report is a built dashboard
type Report struct {
	ID          string
	GeneratedAt time.Time
	Title       string
	Headers     []string
	Source      string
	Sections    []*Section
	Completed   bool

	Info          dataset.Info
	Nulls         []dataset.ColumnCount
	Daily         []dataset.Point
	Decomposition *analysis.Decomposition
	ADF           *analysis.ADFResult
	ACF           *analysis.Correlogram
	PACF          *analysis.Correlogram

	alpha       float64
	summaryDays int
}

// Section is a headed group of blocks. Level 2 and 3 map to h2 and h3.
type Section struct {
	Heading string
	Level   int
	Blocks  []*Block
}

// Block is one element of a section; exactly one field is set
type Block struct {
	Text    string
	Code    string
	Table   *Table
	Metrics []Metric
	Chart   template.HTML
	Error   string
}

// Table is a simple header + rows grid
type Table struct {
	Header []string
	Rows   [][]string
}

// Metric is a labelled value
type Metric struct {
	Label string
	Value string
}

// chartJob renders into a block once the data pass has finished
type chartJob struct {
	name   string
	block  *Block
	render func() ([]byte, error)
}

type builder struct {
	rep  *Report
	opts Options
	jobs []chartJob
}

// Build runs every analysis step over frame. Steps that cannot be computed
// for this data record the error in their section; only rendering failures
// and cancellation abort the build.
func Build(ctx context.Context, frame *dataset.Frame, opts Options) (*Report, error) {
	opts.withDefaults()
	log := opts.Logger

	b := &builder{
		opts: opts,
		rep: &Report{
			ID:          uuid.NewString(),
			GeneratedAt: time.Now().UTC(),
			Title:       opts.Title,
			Headers:     opts.Headers,
			Source:      opts.Source,
			alpha:       opts.Alpha,
			summaryDays: opts.SummaryDays,
		},
	}

	log.Debug().Str("report_id", b.rep.ID).Int("rows", frame.Len()).Msg("building report")

	b.preview(frame)
	b.preparation(frame)
	b.nulls(frame)
	b.visualize(frame)
	b.events(frame)
	b.timeAttributes(frame)
	b.decomposition()
	b.stationarity()
	b.autocorrelation()

	if err := b.renderCharts(ctx); err != nil {
		return nil, err
	}

	b.rep.Completed = true
	log.Debug().Str("report_id", b.rep.ID).Int("charts", len(b.jobs)).Msg("report built")
	return b.rep, nil
}

func (b *builder) section(heading string, level int) *Section {
	s := &Section{Heading: heading, Level: level}
	b.rep.Sections = append(b.rep.Sections, s)
	return s
}

func (s *Section) add(block *Block) *Block {
	s.Blocks = append(s.Blocks, block)
	return block
}

func (s *Section) text(format string, args ...interface{}) {
	s.add(&Block{Text: fmt.Sprintf(format, args...)})
}

func (b *builder) chart(s *Section, name string, render func() ([]byte, error)) {
	block := s.add(&Block{})
	b.jobs = append(b.jobs, chartJob{name: name, block: block, render: render})
}

func (b *builder) failed(s *Section, step string, err error) {
	b.opts.Logger.Warn().Err(err).Str("step", step).Msg("analysis step skipped")
	s.add(&Block{Error: fmt.Sprintf("%s: %v", step, err)})
}

func (b *builder) preview(frame *dataset.Frame) {
	s := b.section("Dataset Preview", 3)
	s.add(&Block{Table: &Table{Header: frame.Columns(), Rows: frame.Head(b.opts.PreviewRows)}})
}

func (b *builder) preparation(frame *dataset.Frame) {
	s := b.section("Data Preparation", 2)
	s.text("Converted `%s` to datetime and set it as the index.", dataset.TimestampColumn)

	info := frame.Info()
	b.rep.Info = info

	s = b.section("Dataset Info", 3)
	if info.Rows > 0 {
		s.add(&Block{Code: fmt.Sprintf("DatetimeIndex: %s entries, %s to %s",
			humanize.Comma(int64(info.Rows)),
			info.Start.Format("2006-01-02 15:04:05"),
			info.End.Format("2006-01-02 15:04:05"))})
	}
	table := &Table{Header: []string{"#", "Column", "Non-Null Count", "Dtype"}}
	for i, c := range info.Columns {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(i), c.Name, humanize.Comma(int64(c.NonNull)) + " non-null", c.Dtype,
		})
	}
	s.add(&Block{Table: table})
	s.add(&Block{Code: "memory usage: " + humanize.Bytes(info.MemoryBytes)})
}

func (b *builder) nulls(frame *dataset.Frame) {
	s := b.section("Null Values", 3)
	b.rep.Nulls = frame.NullCounts()

	table := &Table{Header: []string{"Column", "Nulls"}}
	for _, n := range b.rep.Nulls {
		table.Rows = append(table.Rows, []string{n.Column, strconv.Itoa(n.Count)})
	}
	s.add(&Block{Table: table})
}

func (b *builder) visualize(frame *dataset.Frame) {
	s := b.section("Visualizing Data", 2)
	line := timeLine(dataset.ValueColumn, frame.Series())
	b.chart(s, "value", func() ([]byte, error) {
		return chart.TimeSeries("", chart.DefaultSize, line)
	})
}

func (b *builder) events(frame *dataset.Frame) {
	b.section("Specific Events Analysis", 2)
	for _, ev := range b.opts.Events {
		s := b.section(ev.Name, 3)
		obs := frame.Between(ev.Start, ev.End)
		if len(obs) == 0 {
			s.text("No observations between %s and %s.", ev.Start.Format("2006-01-02"), ev.End.Format("2006-01-02"))
			continue
		}
		line := timeLine(dataset.ValueColumn, dataset.ToPoints(obs))
		title := ev.Name
		b.chart(s, "event "+ev.Name, func() ([]byte, error) {
			return chart.TimeSeries(title, chart.DefaultSize, line)
		})
	}
}

func (b *builder) timeAttributes(frame *dataset.Frame) {
	s := b.section("Adding Time Attributes", 2)
	rows := frame.WithAttributes()
	s.text("Derived day, hour, weekday and month for %s rows.", humanize.Comma(int64(len(rows))))

	b.rep.Daily = frame.ResampleDaily()
	daily := timeLine(dataset.ValueColumn, b.rep.Daily)
	b.chart(s, "daily", func() ([]byte, error) {
		return chart.TimeSeries("", chart.DefaultSize, daily)
	})

	months := groupLines(dataset.ByMonth(rows))
	b.chart(s, "month", func() ([]byte, error) {
		return chart.Grouped("Day Rides by Month", "day", dataset.ValueColumn, chart.DefaultSize, months...)
	})

	weekdays := groupLines(dataset.ByWeekday(rows))
	b.chart(s, "weekday", func() ([]byte, error) {
		return chart.Grouped("Hour Rides by Weekday", "hour", dataset.ValueColumn, chart.DefaultSize, weekdays...)
	})
}

func (b *builder) decomposition() {
	s := b.section("Time Series Decomposition", 2)

	dec, err := analysis.Decompose(dataset.Values(b.rep.Daily), b.opts.Period)
	if err != nil {
		b.failed(s, "seasonal decomposition", err)
		return
	}
	b.rep.Decomposition = dec

	times := make([]time.Time, len(b.rep.Daily))
	for i, p := range b.rep.Daily {
		times[i] = p.Time
	}
	b.chart(s, "decomposition", func() ([]byte, error) {
		return chart.Panels(chart.PanelSize,
			chart.Panel{Title: "Observed", Times: times, Values: dec.Observed},
			chart.Panel{Title: "Trend", Times: times, Values: dec.Trend},
			chart.Panel{Title: "Seasonal", Times: times, Values: dec.Seasonal},
			chart.Panel{Title: "Residual", Times: times, Values: dec.Resid},
		)
	})
}

func (b *builder) stationarity() {
	s := b.section("Stationarity Check", 2)

	values := dataset.Values(dataset.DropNaN(b.rep.Daily))
	res, err := analysis.ADFuller(values)
	if err != nil {
		b.failed(s, "augmented Dickey-Fuller test", err)
		return
	}
	b.rep.ADF = res

	s.text("Test Statistic: %v", res.Statistic)
	s.text("p-value: %v", res.PValue)
	s.add(&Block{Metrics: []Metric{
		{Label: "Lags used", Value: strconv.Itoa(res.UsedLag)},
		{Label: "Observations", Value: strconv.Itoa(res.NObs)},
		{Label: "Critical value (1%)", Value: formatFloat(res.CriticalValues["1%"])},
		{Label: "Critical value (5%)", Value: formatFloat(res.CriticalValues["5%"])},
		{Label: "Critical value (10%)", Value: formatFloat(res.CriticalValues["10%"])},
	}})
}

func (b *builder) autocorrelation() {
	s := b.section("Autocorrelation Analysis", 2)
	values := dataset.Values(dataset.DropNaN(b.rep.Daily))

	acf, err := analysis.ACF(values, b.opts.Lags, b.opts.Alpha)
	if err != nil {
		b.failed(s, "autocorrelation", err)
	} else {
		b.rep.ACF = acf
		b.chart(s, "acf", func() ([]byte, error) {
			return chart.Stems("Autocorrelation", chart.DefaultSize, acf.Values, acf.Band)
		})
	}

	pacf, err := analysis.PACF(values, b.opts.Lags, b.opts.Alpha)
	if err != nil {
		b.failed(s, "partial autocorrelation", err)
		return
	}
	b.rep.PACF = pacf
	b.chart(s, "pacf", func() ([]byte, error) {
		return chart.Stems("Partial Autocorrelation", chart.DefaultSize, pacf.Values, pacf.Band)
	})
}

// renderCharts draws every queued chart concurrently
func (b *builder) renderCharts(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	workers := b.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for _, job := range b.jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			svg, err := job.render()
			if err != nil {
				return fmt.Errorf("rendering %s chart: %w", job.name, err)
			}
			job.block.Chart = inlineSVG(svg)
			return nil
		})
	}
	return g.Wait()
}

// inlineSVG drops the XML prolog so the figure can sit inside HTML
func inlineSVG(svg []byte) template.HTML {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return template.HTML(svg)
}

func timeLine(name string, pts []dataset.Point) chart.TimeLine {
	line := chart.TimeLine{
		Name:   name,
		Times:  make([]time.Time, len(pts)),
		Values: make([]float64, len(pts)),
	}
	for i, p := range pts {
		line.Times[i] = p.Time
		line.Values[i] = p.Value
	}
	return line
}

func groupLines(groups []dataset.Group) []chart.Line {
	lines := make([]chart.Line, len(groups))
	for i, g := range groups {
		l := chart.Line{Name: g.Label, X: make([]float64, len(g.Points)), Y: make([]float64, len(g.Points))}
		for j, p := range g.Points {
			l.X[j] = float64(p.X)
			l.Y[j] = p.Y
		}
		lines[i] = l
	}
	return lines
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
