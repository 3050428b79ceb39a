package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"counsel/adapters/store"
	"counsel/internal/casefile"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage stored case files",
}

var caseCreateFlags struct {
	db                 string
	label              string
	textFile           string
	hearingDate        string
	disclosureDeadline string
}

var caseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case, optionally loading extracted text from a file",
	RunE:  runCaseCreate,
}

var caseListFlags struct {
	db string
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cases",
	RunE:  runCaseList,
}

var caseTimelineFlags struct {
	db     string
	caseID string
	item   string
	action string
	date   string
	note   string
}

var caseTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Append a disclosure-timeline entry to a case",
	RunE:  runCaseTimeline,
}

var caseChargeFlags struct {
	db      string
	caseID  string
	offence string
	section string
	count   int
}

var caseChargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Add a charge to a case",
	RunE:  runCaseCharge,
}

func init() {
	f := caseCreateCmd.Flags()
	f.StringVar(&caseCreateFlags.db, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&caseCreateFlags.label, "label", "", "Case label, e.g. 'R v Doe' (required)")
	f.StringVar(&caseCreateFlags.textFile, "text-file", "", "File with extracted case text")
	f.StringVar(&caseCreateFlags.hearingDate, "hearing", "", "Hearing date (YYYY-MM-DD)")
	f.StringVar(&caseCreateFlags.disclosureDeadline, "disclosure-deadline", "", "Disclosure deadline (YYYY-MM-DD)")
	_ = caseCreateCmd.MarkFlagRequired("label")

	caseListCmd.Flags().StringVar(&caseListFlags.db, "db", store.DefaultDBPath, "Store DB path")

	f = caseTimelineCmd.Flags()
	f.StringVar(&caseTimelineFlags.db, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&caseTimelineFlags.caseID, "case-id", "", "Case ID (required)")
	f.StringVar(&caseTimelineFlags.item, "item", "", "Evidence item, e.g. 'CCTV town centre' (required)")
	f.StringVar(&caseTimelineFlags.action, "action", "", "Action: requested, served, reviewed, outstanding, overdue (required)")
	f.StringVar(&caseTimelineFlags.date, "date", "", "Event date (YYYY-MM-DD)")
	f.StringVar(&caseTimelineFlags.note, "note", "", "Free-text note")
	_ = caseTimelineCmd.MarkFlagRequired("case-id")
	_ = caseTimelineCmd.MarkFlagRequired("item")
	_ = caseTimelineCmd.MarkFlagRequired("action")

	f = caseChargeCmd.Flags()
	f.StringVar(&caseChargeFlags.db, "db", store.DefaultDBPath, "Store DB path")
	f.StringVar(&caseChargeFlags.caseID, "case-id", "", "Case ID (required)")
	f.StringVar(&caseChargeFlags.offence, "offence", "", "Offence text (required)")
	f.StringVar(&caseChargeFlags.section, "section", "", "Statutory section, e.g. 's18 OAPA 1861'")
	f.IntVar(&caseChargeFlags.count, "count", 1, "Count number")
	_ = caseChargeCmd.MarkFlagRequired("case-id")
	_ = caseChargeCmd.MarkFlagRequired("offence")

	casesCmd.AddCommand(caseCreateCmd)
	casesCmd.AddCommand(caseListCmd)
	casesCmd.AddCommand(caseTimelineCmd)
	casesCmd.AddCommand(caseChargeCmd)
}

func runCaseCreate(cmd *cobra.Command, _ []string) error {
	rec := &store.CaseRecord{
		Label:              caseCreateFlags.label,
		HearingDate:        caseCreateFlags.hearingDate,
		DisclosureDeadline: caseCreateFlags.disclosureDeadline,
	}
	if caseCreateFlags.textFile != "" {
		data, err := os.ReadFile(caseCreateFlags.textFile)
		if err != nil {
			return fmt.Errorf("read text file: %w", err)
		}
		rec.ExtractedText = string(data)
		rec.DocCount = 1
		rec.RawCharsTotal = len(rec.ExtractedText)
	}

	st, err := store.Open(caseCreateFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	id, err := st.CreateCase(rec)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created case %s (%s)\n", id, rec.Label)
	return nil
}

func runCaseList(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(caseListFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cases, err := st.ListCases()
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(cases) == 0 {
		fmt.Fprintln(out, "No cases.")
		return nil
	}
	for _, c := range cases {
		fmt.Fprintf(out, "%s  %-24s  docs=%d  created=%s\n", c.ID, c.Label, c.DocCount, c.CreatedAt)
	}
	return nil
}

func runCaseTimeline(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(caseTimelineFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	e := casefile.TimelineEntry{
		Item:   caseTimelineFlags.item,
		Action: caseTimelineFlags.action,
		Note:   caseTimelineFlags.note,
	}
	if caseTimelineFlags.date != "" {
		e.Date = parseDayFlag(caseTimelineFlags.date)
		if e.Date.IsZero() {
			return fmt.Errorf("unparseable date %q, use YYYY-MM-DD", caseTimelineFlags.date)
		}
	}
	if err := st.AddTimelineEntry(caseTimelineFlags.caseID, e); err != nil {
		return fmt.Errorf("add timeline entry: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded: %s %s\n", e.Item, e.Action)
	return nil
}

func runCaseCharge(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(caseChargeFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ch := casefile.ChargeRecord{
		Offence: caseChargeFlags.offence,
		Section: caseChargeFlags.section,
		Count:   caseChargeFlags.count,
	}
	if err := st.AddCharge(caseChargeFlags.caseID, ch); err != nil {
		return fmt.Errorf("add charge: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Charged: %s (%s)\n", ch.Offence, ch.Section)
	return nil
}
