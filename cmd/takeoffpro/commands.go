package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/piwi3910/TakeoffPro/internal/aimerge"
	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/config"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/export"
	"github.com/piwi3910/TakeoffPro/internal/importer"
	"github.com/piwi3910/TakeoffPro/internal/model"
	"github.com/piwi3910/TakeoffPro/internal/project"
	"github.com/piwi3910/TakeoffPro/internal/store"
)

const maxRecentSessions = 10

// cli holds the state loaded from ~/.takeoffpro for one command.
type cli struct {
	cfg         model.AppConfig
	cfgPath     string
	catalog     model.Catalog
	catalogPath string // where catalog changes are saved
	matcher     *catalog.Matcher
	resolver    engine.Resolver
}

func newCLI() (*cli, error) {
	c := &cli{cfgPath: project.DefaultConfigPath()}

	cfg, err := project.LoadAppConfig(c.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.resolver = engine.ResolverFromConfig(cfg)

	switch {
	case cfg.CatalogPath == "":
		c.catalog, c.catalogPath, err = project.LoadOrCreateCatalog()
	case strings.EqualFold(filepath.Ext(cfg.CatalogPath), ".json"):
		c.catalogPath = cfg.CatalogPath
		c.catalog, err = project.LoadCatalog(c.catalogPath)
	default:
		// Spreadsheet price lists are read-only; company items go to the default file.
		var warnings []string
		c.catalogPath = project.DefaultCatalogPath()
		c.catalog, warnings, err = project.OpenCatalog(cfg.CatalogPath)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "catalog: %s\n", w)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	c.matcher = catalog.NewMatcher(c.catalog)
	return c, nil
}

func (c *cli) run(cmd string, args []string) error {
	switch cmd {
	case "new":
		return c.newSession(args)
	case "plan":
		return c.addPlan(args)
	case "select":
		return c.selectPlan(args)
	case "scale":
		return c.setScale(args)
	case "draw":
		return c.draw(args)
	case "overlay":
		return c.overlay(args)
	case "remove":
		return c.remove(args)
	case "sessions":
		return c.sessions()
	case "summary":
		return c.summary(args)
	case "estimate":
		return c.estimate(args)
	case "export":
		return c.exportTakeoff(args)
	case "labels":
		return c.labels(args)
	case "catalog":
		return c.catalogCmd(args)
	case "scales":
		return c.scales()
	case "measure":
		return c.measure(args)
	case "analyze":
		return c.analyze(args)
	case "backup":
		return c.backup(args)
	case "restore":
		return c.restore(args)
	default:
		return fmt.Errorf("unknown command %q (see --help)", cmd)
	}
}

// ─── Sessions ───────────────────────────────────────────────

func (c *cli) newSession(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: new <session> <project-id> [plan-image...]")
	}
	path := sessionPath(args[0])
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	s := model.NewSession(args[1])
	s.Name = strings.TrimSuffix(filepath.Base(path), project.SessionExt)
	c.cfg.ApplyToSession(&s)
	for _, img := range args[2:] {
		s.AddPlan(img).Scale = c.cfg.DefaultScale
	}
	if len(s.Plans) > 0 {
		s.ActivePlan = 0
	}
	return c.saveSession(path, s)
}

func (c *cli) addPlan(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: plan <session> <plan-image>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	plan := s.AddPlan(args[1])
	plan.Scale = c.cfg.DefaultScale
	fmt.Printf("Added %s (%s)\n", plan.Name, plan.ID)
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) selectPlan(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: select <session> <plan#>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	if _, err := usePlanArg(&s, args[1:]); err != nil {
		return err
	}
	fmt.Printf("Active plan: %s\n", s.Active().Name)
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) setScale(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: scale <session> <plan#> <ratio|preset>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	idx, err := planIndex(args[1], len(s.Plans))
	if err != nil {
		return err
	}

	cal := engine.NewCalibrator(s.Plans[idx].Scale)
	if _, err := cal.SelectPreset(args[2]); err != nil {
		if _, err := cal.SetScaleText(args[2]); err != nil {
			return err
		}
	}
	if _, err := engine.SetPlanScale(&s, idx, float64(cal.Scale())); err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", s.Plans[idx].Name, cal.Label())
	if n := len(s.Plans[idx].LiveMeasurements()); n > 0 {
		fmt.Printf("Note: %d existing measurements keep their quantities at the previous scale\n", n)
	}
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) draw(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: draw <session> [plan#] <type> <item-id> x,y [x,y...]")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	rest, err := usePlanArg(&s, args[1:])
	if err != nil {
		return err
	}
	if len(rest) < 3 {
		return fmt.Errorf("usage: draw <session> [plan#] <type> <item-id> x,y [x,y...]")
	}
	kind, err := model.ParseKind(rest[0])
	if err != nil {
		return err
	}
	points, err := parsePoints(rest[2:])
	if err != nil {
		return err
	}

	meas, err := c.resolver.CommitDrawing(&s, kind, points, c.matcher, rest[1])
	if err != nil {
		return err
	}
	c.printMeasurement(meas)
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) overlay(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: overlay <session> [plan#] <drawing.dxf> kind=item-id...")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	rest, err := usePlanArg(&s, args[1:])
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return fmt.Errorf("usage: overlay <session> [plan#] <drawing.dxf> kind=item-id...")
	}

	items := map[model.Kind]string{}
	for _, a := range rest[1:] {
		k, id, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("expected kind=item-id, got %q", a)
		}
		kind, err := model.ParseKind(k)
		if err != nil {
			return err
		}
		items[kind] = id
	}

	result := importer.ImportDXF(rest[0])
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s", strings.Join(result.Errors, "; "))
	}

	// Every CIRCLE is one placement of a single count measurement.
	var countPoints []model.Point
	committed := 0
	for _, o := range result.Overlays {
		id, ok := items[o.Kind]
		if !ok {
			continue
		}
		if o.Kind == model.KindCount {
			countPoints = append(countPoints, o.Points...)
			continue
		}
		meas, err := c.resolver.CommitDrawing(&s, o.Kind, o.Points, c.matcher, id)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Source, err)
		}
		c.printMeasurement(meas)
		committed++
	}
	if len(countPoints) > 0 {
		meas, err := c.resolver.CommitDrawing(&s, model.KindCount, countPoints, c.matcher, items[model.KindCount])
		if err != nil {
			return fmt.Errorf("CIRCLE: %w", err)
		}
		c.printMeasurement(meas)
		committed++
	}

	fmt.Printf("Committed %d of %d shapes\n", committed, len(result.Overlays))
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) remove(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: remove <session> <measurement-id>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	if err := s.RemoveMeasurement(args[1]); err != nil {
		return err
	}
	return c.saveSession(sessionPath(args[0]), s)
}

func (c *cli) sessions() error {
	dir := config.Load().SessionsDir
	if dir == "" {
		dir = project.DefaultSessionsDir()
	}
	files, err := project.ListSessions(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Recent:\n")
	for _, p := range c.cfg.RecentSessions {
		fmt.Printf("  %s\n", p)
	}
	fmt.Printf("In %s:\n", dir)
	for _, p := range files {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func (c *cli) summary(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: summary <session>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, plan := range s.Plans {
		fmt.Fprintf(w, "%d. %s\t%s\n", i+1, plan.Name, plan.Scale)
		for _, m := range plan.LiveMeasurements() {
			name, unit, price := m.PriceListItemID, "", "missing"
			if item, err := c.matcher.ByID(m.PriceListItemID); err == nil {
				name, unit = item.Name, item.Unit
				price = fmt.Sprintf("%.2f", engine.LineTotal(float64(m.Quantity), item.UnitPrice))
			}
			fmt.Fprintf(w, "   %s\t%s\t%d %s\t%s\t%s\n", m.ID, m.Kind, m.Quantity, unit, name, price)
		}
	}
	w.Flush()

	t := engine.SessionTotals(&s, c.matcher).Cents()
	fmt.Printf("\nSubtotal  %10.2f\nOverhead  %10.2f (%g%%)\nTax       %10.2f (%g%%)\nTotal     %10.2f\n",
		t.Subtotal, t.OverheadAmount, s.OverheadPercent, t.TaxAmount, s.TaxPercent, t.Total)
	if t.Skipped > 0 {
		fmt.Printf("%d measurements reference items missing from the catalog\n", t.Skipped)
	}

	scenarios, err := project.LoadScenarios(project.DefaultScenariosPath())
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		scenarios = engine.BuildDefaultScenarios(&s)
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Scenario\tOverhead\tTax\tTotal\tDelta")
	for _, r := range engine.CompareScenarios(scenarios, &s, c.matcher) {
		fmt.Fprintf(w, "%s\t%g%%\t%g%%\t%.2f\t%+.2f\n", r.Scenario.Name, r.Scenario.OverheadPercent, r.Scenario.TaxPercent, r.Totals.Cents().Total, r.Delta)
	}
	return w.Flush()
}

// ─── Output ─────────────────────────────────────────────────

func (c *cli) estimate(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: estimate <session> <name> <out.pdf|.xlsx|.json>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}

	est, err := engine.GenerateEstimate(&s, c.matcher, args[1])
	if err != nil {
		return err
	}
	if _, missing := engine.PriceMeasurements(&s, c.matcher); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d measurements skipped, their items are not in the catalog\n", len(missing))
	}

	out := args[2]
	switch strings.ToLower(filepath.Ext(out)) {
	case ".pdf":
		err = export.ExportEstimatePDF(out, est, c.catalog)
	case ".xlsx":
		err = export.ExportEstimateXLSX(out, est, c.catalog)
	case ".json":
		err = writeJSONFile(out, est)
	default:
		return fmt.Errorf("unsupported output %q", out)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Estimate %s: %d items, total %.2f -> %s\n", est.ID, len(est.Items), est.Total, out)
	return nil
}

func (c *cli) exportTakeoff(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: export <session> <out.pdf|.xlsx>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(args[1])) {
	case ".pdf":
		return export.ExportTakeoffPDF(args[1], &s, c.matcher)
	case ".xlsx":
		return export.ExportTakeoffXLSX(args[1], &s, c.matcher)
	default:
		return fmt.Errorf("unsupported output %q", args[1])
	}
}

func (c *cli) labels(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: labels <session> <out.pdf>")
	}
	s, err := project.LoadSession(sessionPath(args[0]))
	if err != nil {
		return err
	}
	return export.ExportLabels(args[1], &s, c.matcher)
}

// ─── Catalog ────────────────────────────────────────────────

func (c *cli) catalogCmd(args []string) error {
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, cat := range c.catalog.Categories() {
			fmt.Fprintf(w, "%s\n", cat)
			for _, it := range c.catalog.InCategory(cat) {
				fmt.Fprintf(w, "   %s\t%s\t%s\t%.2f\n", it.ID, it.Name, it.Unit, it.UnitPrice)
			}
		}
		return w.Flush()
	}

	switch args[0] {
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: catalog import <file>")
		}
		before := len(c.catalog.All())
		if strings.EqualFold(filepath.Ext(args[1]), ".json") {
			merged, err := project.ImportCatalog(args[1], c.catalog)
			if err != nil {
				return err
			}
			c.catalog = merged
		} else {
			imported, warnings, err := project.OpenCatalog(args[1])
			for _, w := range warnings {
				fmt.Fprintf(os.Stderr, "%s\n", w)
			}
			if err != nil {
				return err
			}
			c.catalog = project.MergeCatalog(c.catalog, imported)
		}
		fmt.Printf("Imported %d new items\n", len(c.catalog.All())-before)
		return project.SaveCatalog(c.catalogPath, c.catalog)

	case "add":
		if len(args) != 5 {
			return fmt.Errorf("usage: catalog add <category> <name> <unit> <price>")
		}
		price, err := importer.ParsePrice(args[4])
		if err != nil || price < 0 {
			return fmt.Errorf("invalid price %q", args[4])
		}
		item := model.NewCustomPriceListItem(args[1], args[2], strings.ToUpper(args[3]), price)
		if !c.catalog.AddCustom(item) {
			return fmt.Errorf("item %s already exists", item.ID)
		}
		fmt.Printf("Added %s\n", item.ID)
		return project.SaveCatalog(c.catalogPath, c.catalog)

	default:
		return fmt.Errorf("unknown catalog command %q", args[0])
	}
}

func (c *cli) scales() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range model.ArchitecturalScales {
		fmt.Fprintf(w, "%s\t%s\n", p.Label, p.Description)
	}
	return w.Flush()
}

// ─── AI ─────────────────────────────────────────────────────

func (c *cli) analyze(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: analyze <image> <name> <category[,category...]>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(args[0])))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	doc := aimerge.Document{
		ImageData:    "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		DocumentType: strings.TrimPrefix(filepath.Ext(args[0]), "."),
	}

	repo, err := store.Open(context.Background(), config.Load().DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analyzer := aimerge.NewHTTPAnalyzer(c.cfg.AnalyzerURL, time.Duration(c.cfg.AnalyzerTimeoutSeconds)*time.Second)
	p := aimerge.NewPipeline(analyzer, c.matcher, repo)
	if err := p.SelectCategories(strings.Split(args[2], ",")); err != nil {
		return err
	}
	review, err := p.Process(ctx, doc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range review {
		source := "catalog"
		if !r.Matched {
			source = "custom"
		}
		fmt.Fprintf(w, "%s\t%g %s\t%.2f\t%.2f\t%s\n", r.Name, r.Quantity, r.Unit, r.SuggestedPrice, r.Total, source)
	}
	w.Flush()

	est, err := p.Commit(ctx, aimerge.EstimateOptions{
		Name:            args[1],
		OverheadPercent: c.cfg.DefaultOverheadPercent,
		TaxPercent:      c.cfg.DefaultTaxPercent,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Stored estimate %s, total %.2f\n", est.ID, est.Total)
	return nil
}

// ─── Data ───────────────────────────────────────────────────

func (c *cli) measure(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: measure <type> <ratio|preset> x,y [x,y...]")
	}
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}
	cal := engine.NewCalibrator(1)
	if _, err := cal.SelectPreset(args[1]); err != nil {
		if _, err := cal.SetScaleText(args[1]); err != nil {
			return err
		}
	}
	points, err := parsePoints(args[2:])
	if err != nil {
		return err
	}
	raw, err := engine.Measure(kind, points)
	if err != nil {
		return err
	}
	qty, err := c.resolver.ResolveQuantity(kind, raw, cal.Scale())
	if err != nil {
		return err
	}
	fmt.Printf("%s at %s: raw %.6f, quantity %d\n", kind, cal.Label(), raw, qty)
	return nil
}

func (c *cli) backup(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: backup <out.json>")
	}
	return project.ExportAllData(args[0], c.cfg, c.catalog)
}

func (c *cli) restore(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: restore <in.json>")
	}
	b, err := project.ImportAllData(args[0])
	if err != nil {
		return err
	}
	if err := project.SaveAppConfig(c.cfgPath, b.Config); err != nil {
		return err
	}
	added := b.RestoreCustomItems(&c.catalog)
	fmt.Printf("Restored config and %d company items\n", added)
	return project.SaveCatalog(c.catalogPath, c.catalog)
}

// ─── Helpers ────────────────────────────────────────────────

func (c *cli) saveSession(path string, s model.Session) error {
	if err := project.SaveSession(path, s); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		c.cfg.AddRecentSession(abs, maxRecentSessions)
		if err := project.SaveAppConfig(c.cfgPath, c.cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not update recent sessions: %v\n", err)
		}
	}
	return nil
}

func (c *cli) printMeasurement(m model.Measurement) {
	unit := ""
	if item, err := c.matcher.ByID(m.PriceListItemID); err == nil {
		unit = item.Unit
	}
	fmt.Printf("%s  %s  %d %s  %s\n", m.ID, m.Kind, m.Quantity, unit, m.PriceListItemID)
}

func sessionPath(p string) string {
	if filepath.Ext(p) == "" {
		return p + project.SessionExt
	}
	return p
}

// usePlanArg activates the plan named by a leading 1-based plan number, if
// there is one, and returns the remaining arguments.
func usePlanArg(s *model.Session, args []string) ([]string, error) {
	if len(args) == 0 {
		return args, nil
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return args, nil
	}
	idx, err := planIndex(args[0], len(s.Plans))
	if err != nil {
		return nil, err
	}
	if err := s.SelectPlan(idx); err != nil {
		return nil, err
	}
	return args[1:], nil
}

func planIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("plan must be between 1 and %d", n)
	}
	return i - 1, nil
}

// parsePoints reads "x,y" pairs in normalized plan coordinates.
func parsePoints(args []string) ([]model.Point, error) {
	points := make([]model.Point, 0, len(args))
	for _, a := range args {
		xs, ys, ok := strings.Cut(a, ",")
		if !ok {
			return nil, fmt.Errorf("expected x,y, got %q", a)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("expected x,y, got %q", a)
		}
		points = append(points, model.Point{X: x, Y: y})
	}
	return points, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
