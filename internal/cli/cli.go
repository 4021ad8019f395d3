package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmaxmax/route/internal/graphfile"
	"github.com/tmaxmax/route/internal/query"
	"github.com/tmaxmax/route/internal/report"
	"golang.org/x/sync/errgroup"
)

const (
	cliName = "route"

	// Exit codes returned by Run and carried by ExitError.
	ExitOK      = 0
	ExitUsage   = 1
	ExitFailure = 2

	defaultFormat = "%q\n"

	usageFlagGraphFile = `A graph-definition file to plan routes on. Can be repeated, and file paths
can also be passed as arguments. The format is chosen by the file extension:
 - .xml: <node id="A"/> and <edge> elements with source, target and cost children
 - .json, .yaml, .yml: {"towns": [...], "routes": [{"from", "to", "distance"}]}
 - .hcl: route "A" "B" { distance = 5 } blocks
 - anything else: text links such as "Graph: AB5, BC4, CD8"`

	usageFlagQuery = `A route query to answer. Can be repeated. When no query is given, the ten
standard queries for towns A to E are answered.

Available queries:
 - distance A-B-C: the distance of the route through the given towns
 - trips A-C [options]: the number of routes between two towns
 - list A-C [options]: the routes between two towns, with their distances
 - shortest A-C: the length of the shortest route between two towns

Options for trips and list (at least one upper limit is required):
 - stops=N: exactly N stops
 - min-stops=N, max-stops=N: bounds on the number of stops, inclusive
 - max-distance=N: routes shorter than N

A missing route is answered with "NO SUCH ROUTE".`

	usageFlagQueries = `A file with one query per line. Blank lines and lines starting with "#" are
skipped. Queries from this file are answered before the ones given with -query.`

	usageFlagFormat = `A C-like format string that describes how each report should be written.
Your shell is responsible for handling escape sequences such as \n.

Available verbs:
 - %: print a literal percent sign
 - n: print the number of towns in the graph
 - m: print the number of routes between towns in the graph
 - a: print the adjacency matrix of the graph
 - N: print the towns in the graph
 - q: print the query answers, as "Output #i: answer" lines
 - {cost function}w: print the total distance of all routes
 - {cost function}M: print the routes in the graph, optionally together with their distances

A cost function describes how a distance should be printed.
It is defined by a ratio and a rounding function. The cost function is applied
as following: the initial distance is multiplied with the ratio, then it is rounded
using the provided function. When a verb requires a cost function,
such as "%w", but none is provided, the default cost function is used:
the ratio is 1 and no rounding is applied. The cost function looks like this:
 {ratio}{rounding mode}
A ratio is a floating-point number in non-scientific notation. The following are valid
ratios:
 - .23: ratio of 0.23
 - 56: ratio of 56.0
 - 3.42: ratio of 3.42
The rounding mode names the rounding function to be used. It is optional in the
cost function. The following rounding modes are allowed:
 - X (default): no rounding
 - F: floor
 - R: round to nearest integer
 - C: ceil

Format string examples:
 - "%n %m\n%M\n%q\n" - Prints the number of towns and routes, on the following lines
   all the routes without their distances, and then the query answers.
 - "%N\n%.62RM\n" - Prints the towns, then each route with its distance converted
   from kilometres to miles and rounded to the nearest integer.
`

	usageFlagOutputDir = `The directory to write the reports to, as <graph file name>.out. Reports are
written to standard output when empty.`

	usageFlagGlob = `A pattern that is used to match the graph files. Graph files given with
-graph_file or as arguments have priority over this flag.`

	cliDescription = `
route answers questions about the routes of a rail network. The network is a
directed graph of towns, read from a graph-definition file:

	route --graph_file towns.txt

prints the answers to the standard queries: the distances of fixed routes,
the number of trips between towns, and the shortest routes. Ask your own
questions with -query, and change the output with -format.

Every flag can also be set through the environment, or a .env file:
ROUTE_GRAPH_FILE, ROUTE_GLOB, ROUTE_QUERIES, ROUTE_FORMAT, ROUTE_OUTPUT_DIR
and ROUTE_VERBOSE.

`
)

// ExitError is returned by New when the program should exit
// without running. Message is empty when it was already printed.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type stringsFlag []string

func (s *stringsFlag) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type job struct {
	index int
	path  string
}

type CLI struct {
	outputDir string
	filepaths []string
	queries   []query.Query
	printer   *report.Printer
	results   [][]byte
	ch        chan job
	progress  chan struct{}
	gr        *errgroup.Group
	ctx       context.Context
	ps        *http.Server
	brp       sync.Pool
	stdout    io.Writer
	log       *log.Logger
	console   *console
	verbose   bool
}

// New parses the command-line arguments and prepares a run. Reports are
// written to stdout, logs and usage information to stderr.
func New(args []string, stdout, stderr io.Writer) (*CLI, error) {
	envLoaded := loadEnv()

	var graphFiles, queryArgs stringsFlag

	f := flag.NewFlagSet(cliName, flag.ContinueOnError)
	f.SetOutput(stderr)
	f.Var(&graphFiles, "graph_file", usageFlagGraphFile)
	f.Var(&queryArgs, "query", usageFlagQuery)
	queriesFile := f.String("queries", getEnvString(envQueries, ""), usageFlagQueries)
	formatString := f.String("format", getEnvString(envFormat, defaultFormat), usageFlagFormat)
	outputDir := f.String("output-dir", getEnvString(envOutputDir, ""), usageFlagOutputDir)
	globPattern := f.String("glob", getEnvString(envGlob, ""), usageFlagGlob)
	profilerAddr := f.String("profiler", "", "The address for the pprof server (leave empty for disabling the profiler)")
	verboseOutput := f.Bool("verbose", getEnvBool(envVerbose, false), "Show various information and progress")
	usage := f.Usage
	f.Usage = func() {
		fmt.Fprint(stderr, cliDescription)
		usage()
	}
	if err := f.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &ExitError{Code: ExitOK}
		}
		return nil, &ExitError{Code: ExitUsage}
	}

	con := &console{w: stderr}
	logger := newLogger(con, *verboseOutput)
	if envLoaded {
		logger.Debug("Loaded .env file")
	}

	fmtStr := *formatString
	if fmtStr == "" {
		fmtStr = defaultFormat
	}

	p, err := report.ParsePrinter(fmtStr)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%v\n\n%s", err, usageFlagFormat)}
	}

	queries, err := parseQueries(*queriesFile, queryArgs)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	filepaths := append([]string(graphFiles), f.Args()...)
	if len(filepaths) == 0 {
		if path := getEnvString(envGraphFile, ""); path != "" {
			filepaths = []string{path}
		}
	}
	if len(filepaths) == 0 && *globPattern != "" {
		ps, err := filepath.Glob(*globPattern)
		if err != nil {
			return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("glob pattern invalid: %v", err)}
		}

		filepaths = ps
	}
	if len(filepaths) == 0 {
		f.Usage()
		return nil, &ExitError{Code: ExitUsage, Message: "no graph file given, use -graph_file <path>"}
	}

	c := &CLI{
		outputDir: *outputDir,
		filepaths: filepaths,
		queries:   queries,
		printer:   p,
		ch:        make(chan job),
		progress:  make(chan struct{}),
		brp: sync.Pool{
			New: func() interface{} {
				return bufio.NewReader(nil)
			},
		},
		stdout:  stdout,
		log:     logger,
		console: con,
		verbose: *verboseOutput,
	}

	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			return nil, &ExitError{Code: ExitFailure, Message: fmt.Sprintf("Failed to create output directory: %v", err)}
		}
	}

	if *profilerAddr != "" {
		c.ps = &http.Server{Addr: *profilerAddr}
		runtime.SetBlockProfileRate(1)
		runtime.SetMutexProfileFraction(1)
	}

	return c, nil
}

func parseQueries(path string, args []string) ([]query.Query, error) {
	var queries []query.Query

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open queries file: %w", err)
		}
		defer f.Close()

		queries, err = query.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, arg := range args {
		q, err := query.Parse(arg)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}

	if len(queries) == 0 {
		return query.Defaults(), nil
	}
	return queries, nil
}

// Run processes every graph file and returns the process exit code.
func (c *CLI) Run() int {
	l := len(c.filepaths)
	workers := min(runtime.GOMAXPROCS(-1), l)

	c.log.Info("Starting route planning", "files", l, "queries", len(c.queries), "workers", workers)
	if c.outputDir != "" {
		if abs, err := filepath.Abs(c.outputDir); err == nil {
			c.log.Info("Writing reports", "dir", abs)
		}
	}

	sctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gr, ctx := errgroup.WithContext(sctx)
	c.gr = gr
	c.ctx = ctx
	c.results = make([][]byte, l)
	pserr := make(chan error, 1)

	var profilerFailed atomic.Bool
	if c.ps != nil {
		ln, err := net.Listen("tcp", c.ps.Addr)
		if err != nil {
			c.log.Error("Failed to start pprof server", "addr", c.ps.Addr, "err", err)
			return ExitFailure
		}
		c.log.Info("Profiler server listening", "addr", ln.Addr().String())

		go func() {
			if err := c.ps.Serve(ln); err != nil && err != http.ErrServerClosed {
				profilerFailed.Store(true)
				c.log.Error("Failed to run pprof server", "addr", c.ps.Addr, "err", err)
				cancel()
			}
		}()

		go func() {
			<-c.ctx.Done()
			if profilerFailed.Load() {
				close(pserr)
			} else {
				pserr <- c.ps.Shutdown(context.Background())
			}
		}()

		defer func() {
			if err, ok := <-pserr; err != nil {
				c.log.Error("Failed to shut down profiler server", "err", err)
			} else if ok {
				c.log.Info("Profiler server was successfully shut down")
			}
		}()
	}

	for i := 0; i < workers; i++ {
		c.gr.Go(c.worker)
	}

	if c.verbose {
		c.gr.Go(c.outputProgress)
	}

	start := time.Now()
	c.gr.Go(c.sendPaths)

	err := c.gr.Wait()
	duration := time.Since(start)
	if c.verbose {
		c.console.printf("\n")
	}

	if profilerFailed.Load() {
		return ExitFailure
	} else if sctx.Err() != nil {
		c.log.Warn("Route planning stopped forcefully", "after", duration)
		return ExitOK
	} else if err != nil {
		c.log.Error("Failed to process graph files", "err", err)
		return ExitFailure
	}

	if err := c.writeResults(); err != nil {
		c.log.Error("Failed to write reports", "err", err)
		return ExitFailure
	}

	c.log.Info("All graph files were successfully processed", "duration", duration)
	return ExitOK
}

func (c *CLI) writeResults() error {
	if c.outputDir != "" {
		return nil
	}

	w := bufio.NewWriter(c.stdout)
	for i, res := range c.results {
		if len(c.results) > 1 {
			if i > 0 {
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "==> %s <==\n", c.filepaths[i]); err != nil {
				return err
			}
		}
		if _, err := w.Write(res); err != nil {
			return err
		}
	}

	return w.Flush()
}

func (c *CLI) sendPaths() error {
	defer close(c.ch)

	for i, p := range c.filepaths {
		select {
		case c.ch <- job{index: i, path: p}:
		case <-c.ctx.Done():
			return nil
		}
	}

	return nil
}

func (c *CLI) worker() error {
	for {
		select {
		case j, ok := <-c.ch:
			if !ok {
				return nil
			}
			if err := c.processFile(j); err != nil {
				return err
			}
		case <-c.ctx.Done():
			return nil
		}
	}
}

func (c *CLI) outputProgress() error {
	var done int
	l := len(c.filepaths)

	c.console.progress(done, l)

	for {
		select {
		case <-c.progress:
			done++
			c.console.progress(done, l)
			if done == l {
				return nil
			}
		case <-c.ctx.Done():
			return nil
		}
	}
}

func (c *CLI) processFile(j job) error {
	input, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer input.Close()

	br := c.brp.Get().(*bufio.Reader)
	defer c.brp.Put(br)
	br.Reset(input)

	g, err := graphfile.Read(br, j.path)
	if err != nil {
		return err
	}
	c.log.Debug("Loaded graph", "path", j.path, "towns", g.Order(), "routes", g.Size())

	answers, err := query.EvalAll(c.ctx, g, c.queries)
	if err != nil {
		return fmt.Errorf("%s: %w", j.path, err)
	}
	for _, a := range answers {
		if a.Err != nil {
			c.log.Debug("No such route", "path", j.path, "query", a.Query.String(), "reason", a.Err)
		}
	}

	rep := &report.Report{Graph: g, Answers: answers}
	if err := c.writeReport(j, rep); err != nil {
		return err
	}

	if c.verbose {
		select {
		case <-c.ctx.Done():
		case c.progress <- struct{}{}:
		}
	}

	return nil
}

func (c *CLI) writeReport(j job, rep *report.Report) error {
	if c.outputDir == "" {
		var buf bytes.Buffer
		if _, err := c.printer.Print(&buf, rep); err != nil {
			return err
		}
		c.results[j.index] = buf.Bytes()
		return nil
	}

	outputPath := filepath.Join(c.outputDir, strings.TrimSuffix(filepath.Base(j.path), filepath.Ext(j.path))+".out")
	output, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	if _, err := c.printer.Print(output, rep); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}

	c.log.Debug("Wrote report", "path", outputPath)
	return nil
}
