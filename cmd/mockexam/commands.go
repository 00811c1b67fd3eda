package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/mockexam/internal/console"
	"github.com/pavelanni/mockexam/internal/history"
	appI18n "github.com/pavelanni/mockexam/internal/i18n"
	"github.com/pavelanni/mockexam/internal/loader"
	"github.com/pavelanni/mockexam/internal/model"
	"github.com/pavelanni/mockexam/internal/session"
	"github.com/pavelanni/mockexam/internal/store"
)

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a timed exam",
		Args:  cobra.NoArgs,
		RunE:  runTake,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.StringP("exam", "e", "", "Exam JSON file or imported exam ID (default: most recently imported)")
	f.IntP("duration", "t", 0, "Time limit in minutes, 30-180 (default: last used, or 90)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.Bool("review", true, "Offer answer review after the results")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Validate exam JSON files and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	commonFlags(cmd)
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported exams",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	commonFlags(cmd)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past results and statistics",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	commonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	commonFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func openStore(v *viper.Viper) (*store.Store, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg := model.RunConfig{
		Lang:         v.GetString("lang"),
		ReviewPrompt: v.GetBool("review"),
	}
	if err := appI18n.Init(cfg.Lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	def, err := resolveExam(db, v.GetString("exam"))
	if err != nil {
		return err
	}

	cfg.DurationMinutes = resolveDuration(db, v.GetInt("duration"))

	past, err := db.ListResults()
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	engine := session.New(session.WithLedger(history.FromSummaries(past)))
	if err := engine.Configure(def, cfg.DurationMinutes); err != nil {
		return fmt.Errorf("configure exam: %w", err)
	}
	if err := db.SetDefaultDuration(cfg.DurationMinutes); err != nil {
		slog.Warn("could not remember duration", "error", err)
	}

	slog.Debug("starting exam", "title", def.Title, "questions", def.Len(),
		"duration_minutes", cfg.DurationMinutes, "lang", cfg.Lang)

	runner := console.New(engine, cmd.InOrStdin(), cmd.OutOrStdout(), console.WithReviewPrompt(cfg.ReviewPrompt))
	ctx := appI18n.WithLang(cmd.Context(), cfg.Lang)
	result, err := runner.Run(ctx)
	if errors.Is(err, console.ErrQuit) {
		return nil
	}
	if result.ID != "" {
		if serr := db.SaveResult(result); serr != nil {
			return errors.Join(err, fmt.Errorf("save result: %w", serr))
		}
	}
	return err
}

// resolveExam turns the --exam value into a definition. A file path is
// imported first so the attempt can be repeated by ID later.
func resolveExam(db *store.Store, ref string) (model.ExamDefinition, error) {
	var rec *model.ExamRecord
	switch id, perr := strconv.ParseInt(ref, 10, 64); {
	case ref == "":
		exams, err := db.ListExams()
		if err != nil {
			return model.ExamDefinition{}, fmt.Errorf("list exams: %w", err)
		}
		if len(exams) == 0 {
			return model.ExamDefinition{}, fmt.Errorf("no exams imported: pass --exam <file> or run 'mockexam import'")
		}
		if rec, err = db.GetExam(exams[len(exams)-1].ID); err != nil {
			return model.ExamDefinition{}, fmt.Errorf("get exam: %w", err)
		}
	case perr == nil:
		var err error
		if rec, err = db.GetExam(id); err != nil {
			return model.ExamDefinition{}, fmt.Errorf("get exam %d: %w", id, err)
		}
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return model.ExamDefinition{}, fmt.Errorf("read %s: %w", ref, err)
		}
		imported, _, err := db.ImportExam(ref, data)
		if err != nil {
			return model.ExamDefinition{}, err
		}
		rec = &imported
	}
	if rec == nil {
		return model.ExamDefinition{}, fmt.Errorf("exam %q not found", ref)
	}

	def, err := loader.Parse(rec.Document)
	if err != nil {
		return model.ExamDefinition{}, fmt.Errorf("parse exam %d: %w", rec.ID, err)
	}
	return def, nil
}

// resolveDuration prefers the flag, then the remembered duration, then the default.
func resolveDuration(db *store.Store, flag int) int {
	if flag != 0 {
		return flag
	}
	stored, err := db.DefaultDuration()
	if err != nil {
		slog.Warn("ignoring stored duration", "error", err)
		return session.DefaultDurationMinutes
	}
	if stored == 0 {
		return session.DefaultDurationMinutes
	}
	return stored
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	var errs []error
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		rec, created, err := db.ImportExam(path, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		status := "imported"
		if !created {
			status = "unchanged"
		}
		fmt.Fprintf(out, "%d\t%s\t%s (%d questions)\n", rec.ID, status, rec.Title, rec.Questions)
	}
	return errors.Join(errs...)
}

func runList(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	exams, err := db.ListExams()
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}
	if len(exams) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No exams imported.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQUESTIONS\tIMPORTED\tPATH")
	for _, e := range exams {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", e.ID, e.Title, e.Questions, humanize.Time(e.ImportedAt), e.Path)
	}
	return w.Flush()
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.ListResults()
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tEXAM\tSCORE\tPERCENT\tFLAGGED\tMINUTES")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s%%\t%d\t%d\n",
			humanize.Time(r.Timestamp), r.ExamTitle, r.CorrectCount, r.ValidTotal,
			humanize.FtoaWithDigits(r.Percentage, 1), r.FlaggedCount, r.DurationMinutes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	agg := history.FromSummaries(results).Aggregate()
	fmt.Fprintf(out, "\n%s: average %s%%, best %s%%, worst %s%%\n",
		humanize.Plural(agg.Count, "attempt", "attempts"),
		humanize.FtoaWithDigits(agg.Average, 1),
		humanize.FtoaWithDigits(agg.Best, 1),
		humanize.FtoaWithDigits(agg.Worst, 1))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := db.ExportResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported results", "count", export.Count, "output", outPath)
	return nil
}
