package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"counsel/adapters/store"
	"counsel/internal/assemble"
	"counsel/internal/casefile"
	"counsel/internal/extract"
	"counsel/internal/solicitor"
	"counsel/internal/strategy"
)

var assessFlags struct {
	db            string
	caseID        string
	snapshotFile  string
	out           string
	asOf          string
	solicitorView bool
	useOpenAI     bool
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run a full strategy assessment for a case",
	Long: `Assembles the case snapshot from the store, runs the engine and prints
the result as JSON. With --solicitor the bounded digest is printed instead.`,
	RunE: runAssess,
}

func init() {
	f := assessCmd.Flags()
	f.StringVar(&assessFlags.db, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&assessFlags.caseID, "case-id", "", "Stored case ID")
	f.StringVar(&assessFlags.snapshotFile, "snapshot", "", "Run on a JSON snapshot file instead of a stored case")
	f.StringVar(&assessFlags.out, "o", "", "Write result JSON to this path instead of stdout")
	f.StringVar(&assessFlags.asOf, "as-of", "", "Anchor date for date math (YYYY-MM-DD, default today)")
	f.BoolVar(&assessFlags.solicitorView, "solicitor", false, "Print the bounded solicitor digest")
	f.BoolVar(&assessFlags.useOpenAI, "openai-extract", false, "Propose signals from text via OpenAI (needs OPENAI_API_KEY)")
}

func runAssess(cmd *cobra.Command, _ []string) error {
	if assessFlags.snapshotFile != "" {
		return runAssessSnapshot(cmd)
	}
	if assessFlags.caseID == "" {
		return fmt.Errorf("either --case-id or --snapshot is required")
	}
	st, err := store.Open(assessFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := assemble.Options{}
	if assessFlags.asOf != "" {
		opts.AsOf = parseDayFlag(assessFlags.asOf)
		if opts.AsOf.IsZero() {
			return fmt.Errorf("unparseable --as-of %q, use YYYY-MM-DD", assessFlags.asOf)
		}
	}
	if assessFlags.useOpenAI {
		ex, err := extract.NewOpenAIExtractor(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
		if err != nil {
			return fmt.Errorf("openai extractor: %w", err)
		}
		opts.Extractor = ex
	}

	snap, err := assemble.Snapshot(cmd.Context(), st, assessFlags.caseID, opts)
	if err != nil {
		return err
	}
	res := strategy.Build(snap, strategy.DefaultOptions())

	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if _, err := st.SaveAssessment(&store.AssessmentRecord{
		CaseID:      assessFlags.caseID,
		Fingerprint: res.Fingerprint,
		Result:      payload,
	}); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}

	return emitAssessment(cmd, res, payload)
}

// runAssessSnapshot runs the engine directly on a JSON snapshot file,
// bypassing the store. Nothing is persisted.
func runAssessSnapshot(cmd *cobra.Command) error {
	raw, err := os.ReadFile(assessFlags.snapshotFile)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap casefile.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", assessFlags.snapshotFile, err)
	}
	if assessFlags.asOf != "" {
		snap.AsOf = parseDayFlag(assessFlags.asOf)
		if snap.AsOf.IsZero() {
			return fmt.Errorf("unparseable --as-of %q, use YYYY-MM-DD", assessFlags.asOf)
		}
	}
	snap.Normalize()

	res := strategy.Build(&snap, strategy.DefaultOptions())
	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return emitAssessment(cmd, res, payload)
}

func emitAssessment(cmd *cobra.Command, res *strategy.Result, payload []byte) error {
	if assessFlags.solicitorView {
		var err error
		payload, err = json.MarshalIndent(solicitor.Build(res, solicitor.DefaultCaps()), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal view: %w", err)
		}
	}
	if assessFlags.out != "" {
		if err := os.WriteFile(assessFlags.out, append(payload, '\n'), 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Result: %s (fingerprint %s)\n", assessFlags.out, res.Fingerprint)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func parseDayFlag(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
