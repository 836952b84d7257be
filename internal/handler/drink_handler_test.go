package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"drink-rating/internal/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1024

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newDrinkHandler(drinks *MockDrinkService, ratings *MockRatingService, qr *MockQRGenerator) *DrinkHandler {
	return NewDrinkHandler(drinks, ratings, qr, testMaxUpload, zerolog.Nop())
}

// multipartBody builds a drink form. A nil image omits the file part.
func multipartBody(t *testing.T, name string, filename string, image []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	if image != nil {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDrinkHandler_List(t *testing.T) {
	drinks := []model.Drink{
		{ID: 2, Name: "Mojito", CreatedAt: time.Now()},
		{ID: 1, Name: "Lemonade", CreatedAt: time.Now().Add(-time.Hour)},
	}

	tests := []struct {
		name           string
		mockReturn     []model.Drink
		mockError      error
		expectedStatus int
		expectedCount  int
	}{
		{name: "Drinks", mockReturn: drinks, expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "Empty catalog", mockReturn: []model.Drink{}, expectedStatus: http.StatusOK, expectedCount: 0},
		{name: "Service error", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDrinkService)
			svc.On("List", mock.Anything).Return(tt.mockReturn, tt.mockError)

			h := newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator))
			req := httptest.NewRequest(http.MethodGet, "/api/drinks", nil)
			w := httptest.NewRecorder()

			h.List(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got []model.Drink
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Len(t, got, tt.expectedCount)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDrinkHandler_Get(t *testing.T) {
	imageURL := "/api/uploads/abc.png"
	drink := &model.Drink{ID: 4, Name: "Cola", ImageURL: &imageURL, CreatedAt: time.Now()}

	tests := []struct {
		name           string
		id             string
		mockReturn     *model.Drink
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{name: "Found", id: "4", mockReturn: drink, expectService: true, expectedStatus: http.StatusOK},
		{name: "Not found", id: "4", mockError: model.ErrDrinkNotFound, expectService: true, expectedStatus: http.StatusNotFound},
		{name: "Invalid id", id: "four", expectService: false, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDrinkService)
			if tt.expectService {
				svc.On("Get", mock.Anything, int64(4)).Return(tt.mockReturn, tt.mockError)
			}

			h := newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator))
			req := httptest.NewRequest(http.MethodGet, "/api/drinks/"+tt.id, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			h.Get(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.Drink
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, "Cola", got.Name)
				require.NotNil(t, got.ImageURL)
				assert.Equal(t, imageURL, *got.ImageURL)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDrinkHandler_Stats(t *testing.T) {
	ratings := new(MockRatingService)
	ratings.On("Aggregate", mock.Anything, int64(4)).
		Return(&model.RatingSummary{DrinkID: 4, Count: 3, Average: 3.67}, nil)

	h := newDrinkHandler(new(MockDrinkService), ratings, new(MockQRGenerator))
	req := httptest.NewRequest(http.MethodGet, "/api/drinks/4/stats", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "4"})
	w := httptest.NewRecorder()

	h.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"drink_id":4,"count":3,"average":3.67}`, w.Body.String())
	ratings.AssertExpectations(t)
}

func TestDrinkHandler_QRCode(t *testing.T) {
	t.Run("Existing drink", func(t *testing.T) {
		drinks := new(MockDrinkService)
		drinks.On("Get", mock.Anything, int64(4)).Return(&model.Drink{ID: 4, Name: "Cola"}, nil)
		qr := new(MockQRGenerator)
		qr.On("Generate", int64(4)).Return(pngHeader, nil)

		h := newDrinkHandler(drinks, new(MockRatingService), qr)
		req := httptest.NewRequest(http.MethodGet, "/api/drinks/4/qrcode", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "4"})
		w := httptest.NewRecorder()

		h.QRCode(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, pngHeader, w.Body.Bytes())
		drinks.AssertExpectations(t)
		qr.AssertExpectations(t)
	})

	t.Run("Unknown drink", func(t *testing.T) {
		drinks := new(MockDrinkService)
		drinks.On("Get", mock.Anything, int64(9)).Return(nil, model.ErrDrinkNotFound)
		qr := new(MockQRGenerator)

		h := newDrinkHandler(drinks, new(MockRatingService), qr)
		req := httptest.NewRequest(http.MethodGet, "/api/drinks/9/qrcode", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "9"})
		w := httptest.NewRecorder()

		h.QRCode(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		qr.AssertNotCalled(t, "Generate", mock.Anything)
	})
}

func TestDrinkHandler_Create(t *testing.T) {
	t.Run("Name and image", func(t *testing.T) {
		imageURL := "/api/uploads/x.png"
		svc := new(MockDrinkService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in *model.DrinkInput) bool {
			return in.Name == "Mojito" &&
				in.Image != nil &&
				in.Image.Filename == "mojito.png" &&
				bytes.Equal(in.Image.Data, pngHeader)
		})).Return(&model.Drink{ID: 1, Name: "Mojito", ImageURL: &imageURL}, nil)

		body, contentType := multipartBody(t, "Mojito", "mojito.png", pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/api/drinks", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got model.Drink
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(1), got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("Name only", func(t *testing.T) {
		svc := new(MockDrinkService)
		svc.On("Create", mock.Anything, &model.DrinkInput{Name: "Tea"}).
			Return(&model.Drink{ID: 2, Name: "Tea"}, nil)

		body, contentType := multipartBody(t, "Tea", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/drinks", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("URL encoded form", func(t *testing.T) {
		svc := new(MockDrinkService)
		svc.On("Create", mock.Anything, &model.DrinkInput{Name: "Coffee"}).
			Return(&model.Drink{ID: 3, Name: "Coffee"}, nil)

		form := url.Values{"name": {"Coffee"}}
		req := httptest.NewRequest(http.MethodPost, "/api/drinks", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Oversized image", func(t *testing.T) {
		svc := new(MockDrinkService)

		body, contentType := multipartBody(t, "Big", "big.png", bytes.Repeat([]byte{0x1}, testMaxUpload+1))
		req := httptest.NewRequest(http.MethodPost, "/api/drinks", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Create(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, model.ErrCodePayloadTooLarge, decodeError(t, w).Error)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Service rejects input", func(t *testing.T) {
		tests := []struct {
			name           string
			err            error
			expectedStatus int
		}{
			{name: "Blank name", err: model.NewValidationError("drink name is required"), expectedStatus: http.StatusBadRequest},
			{name: "Wrong type", err: model.ErrUnsupportedMediaType, expectedStatus: http.StatusUnsupportedMediaType},
			{name: "Storage down", err: model.NewStorageError("failed to store image", errors.New("timeout")), expectedStatus: http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := new(MockDrinkService)
				svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

				body, contentType := multipartBody(t, " ", "notes.txt", []byte("hello"))
				req := httptest.NewRequest(http.MethodPost, "/api/drinks", body)
				req.Header.Set("Content-Type", contentType)
				w := httptest.NewRecorder()

				newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Create(w, req)

				assert.Equal(t, tt.expectedStatus, w.Code)
				svc.AssertExpectations(t)
			})
		}
	})
}

func TestDrinkHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockReturn     *model.Drink
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{name: "Renamed", id: "6", mockReturn: &model.Drink{ID: 6, Name: "Iced Tea"}, expectService: true, expectedStatus: http.StatusOK},
		{name: "Not found", id: "6", mockError: model.ErrDrinkNotFound, expectService: true, expectedStatus: http.StatusNotFound},
		{name: "Invalid id", id: "six", expectService: false, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDrinkService)
			if tt.expectService {
				svc.On("Update", mock.Anything, int64(6), &model.DrinkInput{Name: "Iced Tea"}).
					Return(tt.mockReturn, tt.mockError)
			}

			body, contentType := multipartBody(t, "Iced Tea", "", nil)
			req := httptest.NewRequest(http.MethodPut, "/api/drinks/"+tt.id, body)
			req.Header.Set("Content-Type", contentType)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Update(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestDrinkHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Deleted", expectedStatus: http.StatusOK},
		{name: "Not found", mockError: model.ErrDrinkNotFound, expectedStatus: http.StatusNotFound},
		{name: "Database error", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDrinkService)
			svc.On("Delete", mock.Anything, int64(8)).Return(tt.mockError)

			req := httptest.NewRequest(http.MethodDelete, "/api/drinks/8", nil)
			req = mux.SetURLVars(req, map[string]string{"id": "8"})
			w := httptest.NewRecorder()

			newDrinkHandler(svc, new(MockRatingService), new(MockQRGenerator)).Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"message":"Drink deleted"}`, w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
