package docstore

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"docedit/internal/domain"
)

// ============================================================
// Document Handler
// ============================================================

type Handler struct {
	store domain.DocumentStore
}

func NewHandler(store domain.DocumentStore) *Handler {
	return &Handler{store: store}
}

// documentRequest is the body of create and update calls.
type documentRequest struct {
	Title    string `json:"title"`
	Theme    string `json:"theme"`
	Overview string `json:"overview"`
	Results  string `json:"results"`
	Objects  string `json:"objects"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Create stores a new document and returns its id.
func (h *Handler) Create(c fiber.Ctx) error {
	doc, err := parseDocument(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	id, err := h.store.Create(c.Context(), doc)
	if err != nil {
		log.Printf("[DOCSTORE] create failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "create failed"})
	}
	log.Printf("[DOCSTORE] created %s", id)
	return c.Status(http.StatusCreated).JSON(idResponse{ID: id})
}

// Update replaces an existing document. It never creates one.
func (h *Handler) Update(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "id required"})
	}
	doc, err := parseDocument(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.store.Update(c.Context(), id, doc); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
		}
		log.Printf("[DOCSTORE] update %s failed: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}
	log.Printf("[DOCSTORE] updated %s", id)
	return c.JSON(idResponse{ID: id})
}

// Get returns one document.
func (h *Handler) Get(c fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
		}
		log.Printf("[DOCSTORE] get %s failed: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "get failed"})
	}
	return c.JSON(doc)
}

// parseDocument decodes and validates a request body. objects must hold a
// parseable shape list; an empty value is stored as "[]".
func parseDocument(c fiber.Ctx) (*domain.Document, error) {
	if len(c.Body()) == 0 {
		return nil, errors.New("empty body")
	}
	var req documentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, errors.New("invalid json")
	}
	if strings.TrimSpace(req.Objects) == "" {
		req.Objects = "[]"
	}
	if _, err := domain.DecodeShapes(req.Objects); err != nil {
		return nil, err
	}
	return &domain.Document{
		Title:    req.Title,
		Theme:    req.Theme,
		Overview: req.Overview,
		Results:  req.Results,
		Objects:  req.Objects,
	}, nil
}

// RequireBearer rejects requests without a bearer credential. The
// credential itself is checked by the gateway in front of the service.
func RequireBearer() fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}
