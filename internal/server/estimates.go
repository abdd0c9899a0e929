package server

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/piwi3910/TakeoffPro/internal/aimerge"
	"github.com/piwi3910/TakeoffPro/internal/catalog"
	"github.com/piwi3910/TakeoffPro/internal/engine"
	"github.com/piwi3910/TakeoffPro/internal/export"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// EstimateStore persists estimates. *store.Repository implements it.
type EstimateStore interface {
	AddEstimate(ctx context.Context, e model.Estimate) error
	GetEstimate(ctx context.Context, id string) (*model.Estimate, error)
	ListEstimates(ctx context.Context, projectID string) ([]model.Estimate, error)
	UpdateStatus(ctx context.Context, id string, status model.EstimateStatus) error
	Ping(ctx context.Context) error
}

// ============================================================
// Estimate Handler
// ============================================================

type EstimateHandler struct {
	store    EstimateStore
	matcher  *catalog.Matcher
	analyzer aimerge.Analyzer
}

// NewEstimateHandler wires the estimate routes. analyzer may be nil, in which
// case /analyze answers 503.
func NewEstimateHandler(store EstimateStore, matcher *catalog.Matcher, analyzer aimerge.Analyzer) *EstimateHandler {
	return &EstimateHandler{store: store, matcher: matcher, analyzer: analyzer}
}

type estimateItemRequest struct {
	PriceListItemID string   `json:"priceListItemId"`
	CustomName      string   `json:"customName"`
	CustomUnit      string   `json:"customUnit"`
	CustomCategory  string   `json:"customCategory"`
	Quantity        float64  `json:"quantity"`
	UnitPrice       *float64 `json:"unitPrice"`
	Notes           string   `json:"notes"`
}

type createEstimateRequest struct {
	ProjectID       string                `json:"projectId"`
	Name            string                `json:"name"`
	OverheadPercent *float64              `json:"overheadPercent"`
	TaxPercent      *float64              `json:"taxPercent"`
	Items           []estimateItemRequest `json:"items"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type analyzeRequest struct {
	ImageData    string         `json:"imageData"`
	DocumentType string         `json:"documentType"`
	Categories   []string       `json:"categories"`
	Commit       *commitRequest `json:"commit,omitempty"`
}

type commitRequest struct {
	ProjectID       string   `json:"projectId"`
	Name            string   `json:"name"`
	OverheadPercent *float64 `json:"overheadPercent"`
	TaxPercent      *float64 `json:"taxPercent"`
}

// Create prices the posted lines, aggregates them and stores the estimate.
// Catalog lines take the catalog price unless unitPrice is given; lines with
// no catalog ID are custom and need a name.
func (h *EstimateHandler) Create(c fiber.Ctx) error {
	var req createEstimateRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	est, err := h.buildEstimate(req)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.store.AddEstimate(c.Context(), est); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(est)
}

func (h *EstimateHandler) buildEstimate(req createEstimateRequest) (model.Estimate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Estimate{}, model.ErrEstimateName
	}
	if len(req.Items) == 0 {
		return model.Estimate{}, model.ErrNoMeasurements
	}

	est := model.NewEstimate(req.ProjectID, name)
	for i, r := range req.Items {
		item := model.EstimateItem{
			ID:              "item-" + uuid.New().String()[:8],
			PriceListItemID: strings.TrimSpace(r.PriceListItemID),
			Quantity:        r.Quantity,
			Notes:           r.Notes,
		}

		if item.PriceListItemID == "" || item.PriceListItemID == model.CustomItemID {
			if strings.TrimSpace(r.CustomName) == "" {
				return model.Estimate{}, fmt.Errorf("%w: item %d has neither a catalog id nor a name", errBadRequest, i)
			}
			item.PriceListItemID = model.CustomItemID
			item.CustomName = strings.TrimSpace(r.CustomName)
			item.CustomUnit = r.CustomUnit
			if item.CustomUnit == "" {
				item.CustomUnit = catalog.DefaultUnit
			}
			item.CustomCategory = r.CustomCategory
			item.UnitPrice = orDefault(r.UnitPrice, 0)
		} else {
			entry, err := h.matcher.ByID(item.PriceListItemID)
			if err != nil {
				return model.Estimate{}, err
			}
			item.UnitPrice = orDefault(r.UnitPrice, entry.UnitPrice)
		}

		item.Total = engine.LineTotal(item.Quantity, item.UnitPrice)
		est.Items = append(est.Items, item)
	}

	overhead := orDefault(req.OverheadPercent, model.DefaultOverheadPercent)
	tax := orDefault(req.TaxPercent, model.DefaultTaxPercent)
	engine.ApplyTotals(&est, engine.Aggregate(engine.LinesFromItems(est.Items), overhead, tax), overhead, tax)
	return est, nil
}

// Get returns one stored estimate with its items.
func (h *EstimateHandler) Get(c fiber.Ctx) error {
	est, err := h.store.GetEstimate(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(est)
}

// List returns the estimates of ?project=, or all estimates.
func (h *EstimateHandler) List(c fiber.Ctx) error {
	list, err := h.store.ListEstimates(c.Context(), c.Query("project"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// SetStatus moves an estimate to draft, sent, approved or rejected.
func (h *EstimateHandler) SetStatus(c fiber.Ctx) error {
	var req statusRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}

	status := model.EstimateStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	switch status {
	case model.EstimateDraft, model.EstimateSent, model.EstimateApproved, model.EstimateRejected:
	default:
		return writeError(c, fmt.Errorf("%w: unknown status %q", errBadRequest, req.Status))
	}

	if err := h.store.UpdateStatus(c.Context(), c.Params("id"), status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "status": status})
}

// PDF renders a stored estimate as a PDF document.
func (h *EstimateHandler) PDF(c fiber.Ctx) error {
	est, err := h.store.GetEstimate(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteEstimatePDF(&buf, *est, h.matcher.Catalog()); err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "estimate-"+est.ID+".pdf"))
	return c.Send(buf.Bytes())
}

// Analyze runs one document through the AI merge pipeline and returns the
// review list. When commit options are posted the reviewed items are
// committed straight away and the stored estimate is returned instead.
func (h *EstimateHandler) Analyze(c fiber.Ctx) error {
	if h.analyzer == nil {
		return writeError(c, errAnalyzerNotConfigured)
	}

	var req analyzeRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.ImageData == "" {
		return writeError(c, fmt.Errorf("%w: imageData is required", errBadRequest))
	}

	p := aimerge.NewPipeline(h.analyzer, h.matcher, h.store)
	if err := p.SelectCategories(req.Categories); err != nil {
		return writeError(c, err)
	}

	review, err := p.Process(c.Context(), aimerge.Document{ImageData: req.ImageData, DocumentType: req.DocumentType})
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("[AI] analyzed %s document: %d items", req.DocumentType, len(review))

	if req.Commit == nil {
		return c.JSON(fiber.Map{"state": p.State().String(), "items": review})
	}

	opts := aimerge.EstimateOptions{
		ProjectID:       req.Commit.ProjectID,
		Name:            req.Commit.Name,
		OverheadPercent: orDefault(req.Commit.OverheadPercent, model.DefaultOverheadPercent),
		TaxPercent:      orDefault(req.Commit.TaxPercent, model.DefaultTaxPercent),
	}
	est, err := p.Commit(c.Context(), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(est)
}
