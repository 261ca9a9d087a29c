// Package batch scores newline-delimited JSON transaction files.
//
// Each input line is one TransactionContext; each output line is either a
// fully serialized DecisionPackage or a per-line error record. Transactions
// are independent and share no mutable state, so they are scored on a
// bounded worker pool, but output order always matches input order.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/metrics"
)

// maxLineBytes bounds a single input line (1MB, matching the API body limit).
const maxLineBytes = 1 << 20

// Scorer scores one transaction. Implemented by *decision.Engine.
type Scorer interface {
	Score(ctx context.Context, txn *decision.TransactionContext) (*decision.DecisionPackage, error)
}

// Result is the outcome for one input line.
type Result struct {
	Line      int // 1-based input line number
	Package   *decision.DecisionPackage
	Err       error
	Malformed bool // Err came from parsing, not scoring
}

// Summary aggregates a batch run.
type Summary struct {
	Lines     int // non-blank input lines
	Scored    int
	Malformed int // lines that failed to parse
	Failed    int // lines that parsed but failed to score
}

// errorRecord is the output line written for a line that produced no
// decision. Its shape is distinct from a DecisionPackage so consumers can
// tell the two apart.
type errorRecord struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Processor runs batch scoring.
type Processor struct {
	scorer  Scorer
	workers int
	strict  bool
	logger  *slog.Logger
}

// NewProcessor creates a batch processor scoring on up to workers
// concurrent pipelines.
func NewProcessor(scorer Scorer, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		scorer:  scorer,
		workers: workers,
		logger:  slog.Default(),
	}
}

// WithStrict makes the processor abort on the first malformed line instead
// of reporting it and continuing.
func (p *Processor) WithStrict(strict bool) *Processor {
	p.strict = strict
	return p
}

// WithLogger sets the processor's logger.
func (p *Processor) WithLogger(logger *slog.Logger) *Processor {
	p.logger = logger
	return p
}

// Process reads NDJSON transactions from r, scores them, and writes one
// output line per non-blank input line to w, in input order. Blank lines
// are skipped. Malformed lines and per-transaction failures are written as
// error records; only I/O errors (or strict-mode parse failures, or context
// cancellation) abort the batch.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) (*Summary, error) {
	type item struct {
		line int
		txn  *decision.TransactionContext
	}

	var (
		results []Result
		items   []item // parsed transactions, index into results
	)

	reader := bufio.NewReaderSize(r, 64*1024)

	lineNo := 0
	for {
		raw, tooLong, err := readLine(reader)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read batch input: %w", err)
		}
		atEOF := errors.Is(err, io.EOF)

		if len(raw) > 0 || tooLong {
			lineNo++
			switch {
			case tooLong:
				// One oversized line must not sink the rest of the batch.
				parseErr := fmt.Errorf("line %d: line exceeds %d bytes", lineNo, maxLineBytes)
				if p.strict {
					return nil, parseErr
				}
				p.logger.Warn("skipping oversized batch line", "line", lineNo)
				results = append(results, Result{Line: lineNo, Err: parseErr, Malformed: true})
			default:
				line := strings.TrimSpace(string(raw))
				if line == "" {
					break
				}
				var txn decision.TransactionContext
				if err := json.Unmarshal([]byte(line), &txn); err != nil {
					parseErr := fmt.Errorf("line %d: malformed transaction: %w", lineNo, err)
					if p.strict {
						return nil, parseErr
					}
					p.logger.Warn("skipping malformed batch line", "line", lineNo, "error", err)
					results = append(results, Result{Line: lineNo, Err: parseErr, Malformed: true})
					break
				}
				results = append(results, Result{Line: lineNo})
				items = append(items, item{line: lineNo, txn: &txn})
			}
		}

		if atEOF {
			break
		}
	}

	// Score parsed transactions concurrently; slot results by position so
	// output order matches input order.
	index := make(map[int]int, len(results)) // line number → results index
	for i, res := range results {
		index[res.Line] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, it := range items {
		g.Go(func() error {
			pkg, err := p.scorer.Score(gctx, it.txn)
			i := index[it.line]
			if err != nil {
				results[i].Err = fmt.Errorf("line %d: %w", it.line, err)
				return nil // per-line failure, not a batch failure
			}
			results[i].Package = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.write(w, results)
}

// readLine reads one input line, capped at maxLineBytes. An oversized line
// is drained to its newline and reported via tooLong instead of an error, so
// it can become a per-line error record rather than aborting the batch.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes {
				tooLong = true
				line = nil
			}
		}
		switch {
		case err == nil:
			return line, tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return line, tooLong, err
		}
	}
}

func (p *Processor) write(w io.Writer, results []Result) (*Summary, error) {
	summary := &Summary{Lines: len(results)}
	enc := json.NewEncoder(w)

	for _, res := range results {
		switch {
		case res.Package != nil:
			summary.Scored++
			metrics.BatchLinesTotal.WithLabelValues("scored").Inc()
			if err := enc.Encode(res.Package); err != nil {
				return summary, fmt.Errorf("write decision for line %d: %w", res.Line, err)
			}
		case res.Err != nil:
			rec := errorRecord{Line: res.Line, Error: res.Err.Error()}
			if res.Malformed {
				summary.Malformed++
				metrics.BatchLinesTotal.WithLabelValues("malformed").Inc()
			} else {
				summary.Failed++
				metrics.BatchLinesTotal.WithLabelValues("failed").Inc()
			}
			if err := enc.Encode(rec); err != nil {
				return summary, fmt.Errorf("write error record for line %d: %w", res.Line, err)
			}
		}
	}
	return summary, nil
}

// ProcessFile scores inPath into outPath.
func (p *Processor) ProcessFile(ctx context.Context, inPath, outPath string) (*Summary, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = out.Close() }()

	bw := bufio.NewWriter(out)
	summary, err := p.Process(ctx, in, bw)
	if err != nil {
		return summary, err
	}
	if err := bw.Flush(); err != nil {
		return summary, fmt.Errorf("flush output: %w", err)
	}
	return summary, nil
}
