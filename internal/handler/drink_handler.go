package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"drink-rating/internal/model"
	"drink-rating/internal/report"
	"drink-rating/internal/service"

	"github.com/rs/zerolog"
)

// multipartOverheadBytes is the allowance for form fields and part headers
// on top of the image size limit.
const multipartOverheadBytes = 64 << 10

// DrinkHandler handles drink catalog requests.
type DrinkHandler struct {
	drinks         service.DrinkService
	ratings        service.RatingService
	qr             report.QRGenerator
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewDrinkHandler creates a new drink handler.
func NewDrinkHandler(
	drinks service.DrinkService,
	ratings service.RatingService,
	qr report.QRGenerator,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *DrinkHandler {
	return &DrinkHandler{
		drinks:         drinks,
		ratings:        ratings,
		qr:             qr,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "drink").Logger(),
	}
}

// List handles GET /api/drinks requests.
func (h *DrinkHandler) List(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.drinks.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, drinks)
}

// Get handles GET /api/drinks/{id} requests.
func (h *DrinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	drink, err := h.drinks.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, drink)
}

// Stats handles GET /api/drinks/{id}/stats requests.
func (h *DrinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	summary, err := h.ratings.Aggregate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// QRCode handles GET /api/drinks/{id}/qrcode requests.
func (h *DrinkHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if _, err := h.drinks.Get(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	png, err := h.qr.Generate(id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Create handles POST /api/drinks requests.
func (h *DrinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := adminLogger(r, h.logger)

	input, err := h.parseDrinkForm(w, r)
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	drink, err := h.drinks.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	logger.Info().Int64("drink_id", drink.ID).Msg("admin created drink")
	writeJSON(w, http.StatusCreated, drink)
}

// Update handles PUT /api/drinks/{id} requests.
func (h *DrinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := adminLogger(r, h.logger)

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	input, err := h.parseDrinkForm(w, r)
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	drink, err := h.drinks.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	logger.Info().Int64("drink_id", id).Bool("image_replaced", input.Image != nil).Msg("admin updated drink")
	writeJSON(w, http.StatusOK, drink)
}

// Delete handles DELETE /api/drinks/{id} requests.
func (h *DrinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := adminLogger(r, h.logger)

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	if err := h.drinks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, logger)
		return
	}

	logger.Info().Int64("drink_id", id).Msg("admin deleted drink")
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Drink deleted"})
}

// parseDrinkForm reads the name field and the optional image part. Requests
// that are not multipart are read as plain forms without an image.
func (h *DrinkHandler) parseDrinkForm(w http.ResponseWriter, r *http.Request) (*model.DrinkInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverheadBytes)

	err := r.ParseMultipartForm(h.maxUploadBytes)
	switch {
	case err == nil:
		defer r.MultipartForm.RemoveAll()
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, formError(err)
		}
		return &model.DrinkInput{Name: r.PostFormValue("name")}, nil
	default:
		return nil, formError(err)
	}

	input := &model.DrinkInput{Name: r.PostFormValue("name")}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, nil
		}
		return nil, formError(err)
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return nil, model.ErrPayloadTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, formError(err)
	}

	input.Image = &model.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	return input, nil
}

// formError classifies a request body read failure.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.ErrPayloadTooLarge
	}
	return model.NewValidationError("invalid form data")
}
