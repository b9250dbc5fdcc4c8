package checker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kysee/zkevm-state/state"
)

// Source delivers the access trace to verify.
type Source interface {
	Trace() (*Trace, error)
}

// FileSource implements Source by reading a local JSON fixture.
type FileSource struct {
	FilePath string
}

// NewFileSource creates a new FileSource with the given file path
func NewFileSource(filePath string) *FileSource {
	return &FileSource{
		FilePath: filePath,
	}
}

// Trace reads and parses the access trace from the file
func (f *FileSource) Trace() (*Trace, error) {
	data, err := os.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", f.FilePath, err)
	}

	var trace Trace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &trace, nil
}

// Run loads the trace, materializes and sorts the rows, projects the
// oracle-facing trie-update view, and validates every consecutive row pair.
// It returns nil on accept; on reject the error carries the offending row and
// rule.
func (r *Runner) Run() error {
	trace, err := r.source.Trace()
	if err != nil {
		return fmt.Errorf("failed to load trace: %w", err)
	}

	challenge, err := trace.ChallengeElement()
	if err != nil {
		return fmt.Errorf("failed to decode challenge: %w", err)
	}

	ops, err := trace.Operations()
	if err != nil {
		return fmt.Errorf("failed to decode operations: %w", err)
	}
	r.log.Info().Int("ops", len(ops)).Msg("trace loaded")

	rows := state.BuildRows(ops, challenge)
	state.SortRows(rows)
	oracle := state.MPTTableFromRows(rows)
	r.log.Info().
		Int("rows", len(rows)).
		Int("trie_updates", len(oracle.Entries())).
		Msg("rows materialized and sorted")

	if r.config.Parallel {
		err = state.ValidateRowsParallel(rows, oracle, challenge)
	} else {
		err = state.ValidateRows(rows, oracle, challenge)
	}
	if err != nil {
		var rej *state.RejectionError
		if errors.As(err, &rej) {
			r.log.Error().
				Int("row", rej.Index).
				Stringer("tag", rej.Tag).
				Stringer("kind", rej.Kind).
				Str("rule", rej.Rule).
				Msg("trace rejected")
		}
		return err
	}

	r.log.Info().Msg("trace accepted")
	return nil
}

// Runner wires a trace source to the validation scan.
type Runner struct {
	config *Config
	source Source
	log    zerolog.Logger
}

// NewRunner creates a new Runner with the given source
func NewRunner(config *Config, source Source, log zerolog.Logger) *Runner {
	return &Runner{
		config: config,
		source: source,
		log:    log,
	}
}

// Main runs the checker against the configured trace fixture and exits
// nonzero on rejection.
func Main(config *Config) {
	log := zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	runner := NewRunner(config, NewFileSource(config.TraceFile()), log)
	if err := runner.Run(); err != nil {
		log.Error().Err(err).Msg("verification failed")
		os.Exit(1)
	}
}
