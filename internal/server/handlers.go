package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/model"
	"github.com/piwi3910/TakeoffPro/internal/store"
)

// ============================================================
// Takeoff Handler
// ============================================================

type TakeoffHandler struct {
	matcher  *catalog.Matcher
	resolver engine.Resolver
}

func NewTakeoffHandler(matcher *catalog.Matcher, resolver engine.Resolver) *TakeoffHandler {
	return &TakeoffHandler{matcher: matcher, resolver: resolver}
}

type measureRequest struct {
	Type   string        `json:"type"`
	Points []model.Point `json:"points"`
}

type measureResponse struct {
	Type string  `json:"type"`
	Raw  float64 `json:"raw"`
}

type quantityRequest struct {
	Type   string        `json:"type"`
	Points []model.Point `json:"points,omitempty"`
	Raw    *float64      `json:"raw,omitempty"`
	Scale  *float64      `json:"scale,omitempty"`
	Preset string        `json:"preset,omitempty"`
}

type quantityResponse struct {
	Type     string  `json:"type"`
	Raw      float64 `json:"raw"`
	Scale    float64 `json:"scale"`
	Quantity int     `json:"quantity"`
}

type aggregateLine struct {
	Quantity  *float64 `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
}

type aggregateRequest struct {
	Lines           []aggregateLine `json:"lines"`
	OverheadPercent *float64        `json:"overheadPercent"`
	TaxPercent      *float64        `json:"taxPercent"`
}

type matchRequest struct {
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	UnitPrice *float64 `json:"unitPrice"`
	Category  string   `json:"category"`
}

type matchResponse struct {
	Item     model.PriceListItem `json:"item"`
	Fallback bool                `json:"fallback"`
}

// Measure returns the raw normalized magnitude of a drawing.
func (h *TakeoffHandler) Measure(c fiber.Ctx) error {
	var req measureRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	kind, points, err := parseDrawing(req.Type, req.Points)
	if err != nil {
		return writeError(c, err)
	}
	raw, err := engine.Measure(kind, points)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(measureResponse{Type: string(kind), Raw: raw})
}

// Quantity converts a drawing, or an already measured raw value, into whole
// units at the requested scale. The scale may be given as a ratio or as a
// preset label; it defaults to 1:1.
func (h *TakeoffHandler) Quantity(c fiber.Ctx) error {
	var req quantityRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	kind, err := model.ParseKind(req.Type)
	if err != nil {
		return writeError(c, err)
	}

	scale := model.Scale(1)
	switch {
	case req.Preset != "":
		p := model.FindScalePreset(req.Preset)
		if p == nil {
			return writeError(c, fmt.Errorf("%w: unknown preset %q", model.ErrInvalidScale, req.Preset))
		}
		scale = p.Ratio
	case req.Scale != nil:
		scale = model.Scale(*req.Scale)
	}
	if err := scale.Validate(); err != nil {
		return writeError(c, err)
	}

	var raw float64
	if req.Raw != nil {
		raw = *req.Raw
	} else {
		if _, _, err := parseDrawing(req.Type, req.Points); err != nil {
			return writeError(c, err)
		}
		if raw, err = engine.Measure(kind, req.Points); err != nil {
			return writeError(c, err)
		}
	}

	qty, err := h.resolver.ResolveQuantity(kind, raw, scale)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(quantityResponse{Type: string(kind), Raw: raw, Scale: float64(scale), Quantity: qty})
}

// Aggregate rolls priced lines into cent-rounded totals. Missing rates fall
// back to the default overhead and tax.
func (h *TakeoffHandler) Aggregate(c fiber.Ctx) error {
	var req aggregateRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	lines := make([]engine.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = engine.Line{Quantity: orNaN(l.Quantity), UnitPrice: orNaN(l.UnitPrice)}
	}
	overhead := orDefault(req.OverheadPercent, model.DefaultOverheadPercent)
	tax := orDefault(req.TaxPercent, model.DefaultTaxPercent)

	return c.JSON(engine.Aggregate(lines, overhead, tax).Cents())
}

// Match resolves a free-text item name against the catalog.
func (h *TakeoffHandler) Match(c fiber.Ctx) error {
	var req matchRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	m := h.matcher.ByName(catalog.Suggestion{Name: req.Name, Unit: req.Unit, UnitPrice: req.UnitPrice, Category: req.Category})
	return c.JSON(matchResponse{Item: m.Item, Fallback: m.Fallback})
}

// Catalog lists the catalog grouped by category in first-seen order.
// ?category= narrows the listing; ?id= returns a single entry.
func (h *TakeoffHandler) Catalog(c fiber.Ctx) error {
	cat := h.matcher.Catalog()

	if id := c.Query("id"); id != "" {
		item, err := h.matcher.ByID(id)
		if err != nil {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(item)
	}

	categories := cat.Categories()
	if only := c.Query("category"); only != "" {
		categories = []string{only}
	}

	groups := make([]fiber.Map, 0, len(categories))
	for _, name := range categories {
		groups = append(groups, fiber.Map{"category": name, "items": cat.InCategory(name)})
	}
	return c.JSON(fiber.Map{"categories": groups})
}

// Scales lists the architectural scale presets.
func (h *TakeoffHandler) Scales(c fiber.Ctx) error {
	return c.JSON(model.ArchitecturalScales)
}

// ============================================================
// Helpers
// ============================================================

func parseDrawing(kindText string, points []model.Point) (model.Kind, []model.Point, error) {
	kind, err := model.ParseKind(kindText)
	if err != nil {
		return "", nil, err
	}
	for i, p := range points {
		if !p.InBounds() {
			return "", nil, fmt.Errorf("%w: point %d is (%v, %v)", model.ErrPointOutOfBounds, i, p.X, p.Y)
		}
	}
	return kind, points, nil
}

var (
	errBadRequest            = errors.New("bad request")
	errAnalyzerNotConfigured = errors.New("document analyzer is not configured")
)

func decodeBody(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: invalid json", errBadRequest)
	}
	return nil
}

func writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAIRequest):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidScale),
		errors.Is(err, model.ErrInsufficientPoints),
		errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrPointOutOfBounds),
		errors.Is(err, model.ErrCatalogItemNotFound),
		errors.Is(err, model.ErrNoMeasurements),
		errors.Is(err, model.ErrEstimateName),
		errors.Is(err, model.ErrNoCategories):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, model.ErrDiscarded):
		return http.StatusConflict
	case errors.Is(err, errAnalyzerNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
