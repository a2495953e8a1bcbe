package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// consolePageSize is the number of rows on a console listing page.
const consolePageSize = 100

// recentMovements is the number of movements shown on a product page.
const recentMovements = 20

type productsPage struct {
	PageData
	Levels     []model.StockLevel
	Types      []string
	Type       string
	Search     string
	Pagination Pagination
	Form       productForm
}

type productForm struct {
	Name        string
	Description string
	ProductType string
}

func productFormFrom(r *http.Request) productForm {
	return productForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		ProductType: r.FormValue("product_type"),
	}
}

// ProductsPage handles GET /products.
func (s *Server) ProductsPage(w http.ResponseWriter, r *http.Request) {
	s.renderProducts(w, r, http.StatusOK, productForm{}, "")
}

func (s *Server) renderProducts(w http.ResponseWriter, r *http.Request, status int, form productForm, formErr string) {
	log := zerolog.Ctx(r.Context())
	q := r.URL.Query()
	filter := store.StockLevelFilter{ProductType: q.Get("product_type"), Search: q.Get("q")}
	page := pageParam(r)

	levels, total, err := s.Inventory.StockLevels(r.Context(), filter, store.Page{
		Offset: (page - 1) * consolePageSize,
		Limit:  consolePageSize,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to list stock levels")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	types, err := store.ProductTypes(r.Context(), s.DB)
	if err != nil {
		log.Error().Err(err).Msg("failed to list product types")
	}

	s.Templates.Render(w, status, "products.html", &productsPage{
		PageData:   PageData{Title: "Products", User: GetWebClaims(r.Context()), Error: formErr, Success: q.Get("ok")},
		Levels:     levels,
		Types:      types,
		Type:       filter.ProductType,
		Search:     filter.Search,
		Pagination: newPagination(q, page, consolePageSize, total),
		Form:       form,
	})
}

// ProductCreateSubmit handles POST /products.
func (s *Server) ProductCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	form := productFormFrom(r)

	p, err := store.CreateProduct(r.Context(), s.DB, form.Name, form.Description, form.ProductType)
	if errors.Is(err, store.ErrInvalidArgument) {
		s.renderProducts(w, r, http.StatusBadRequest, form, validationMessage(err))
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to create product")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", claims.Username).Int64("product_id", p.ID).Str("product", p.Name).Msg("product created")
	http.Redirect(w, r, fmt.Sprintf("/products/%d", p.ID), http.StatusSeeOther)
}

type productDetailPage struct {
	PageData
	Level     *model.StockLevel
	Movements []model.StockMovement
	Form      productForm
}

// ProductDetailPage handles GET /products/{id}.
func (s *Server) ProductDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	s.renderProduct(w, r, http.StatusOK, id, nil, "")
}

func (s *Server) renderProduct(w http.ResponseWriter, r *http.Request, status int, id int64, form *productForm, formErr string) {
	log := zerolog.Ctx(r.Context())

	level, err := s.Inventory.StockLevel(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	movements, _, err := s.Inventory.Movements(r.Context(), store.MovementFilter{ProductID: id}, nil, store.Page{Limit: recentMovements})
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("failed to list product movements")
	}

	f := productForm{Name: level.Name, Description: level.Description, ProductType: level.ProductType}
	if form != nil {
		f = *form
	}

	s.Templates.Render(w, status, "product_detail.html", &productDetailPage{
		PageData:  PageData{Title: level.Name, User: GetWebClaims(r.Context()), Error: formErr, Success: r.URL.Query().Get("ok")},
		Level:     level,
		Movements: movements,
		Form:      f,
	})
}

// ProductUpdateSubmit handles POST /products/{id}.
func (s *Server) ProductUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := productID(w, r)
	if !ok {
		return
	}
	form := productFormFrom(r)

	err := store.UpdateProduct(r.Context(), s.DB, id, form.Name, form.Description, form.ProductType)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
		return
	case errors.Is(err, store.ErrInvalidArgument):
		s.renderProduct(w, r, http.StatusBadRequest, id, &form, validationMessage(err))
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to update product")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", claims.Username).Int64("product_id", id).Str("product", form.Name).Msg("product updated")
	http.Redirect(w, r, fmt.Sprintf("/products/%d?ok=Product+saved.", id), http.StatusSeeOther)
}

// ProductDeleteSubmit handles POST /products/{id}/delete. All movements of
// the product are deleted with it.
func (s *Server) ProductDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := productID(w, r)
	if !ok {
		return
	}

	err := store.DeleteProduct(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to delete product")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", claims.Username).Int64("product_id", id).Msg("product deleted")
	http.Redirect(w, r, "/products?ok=Product+deleted.", http.StatusSeeOther)
}

// ProductImageSubmit handles POST /products/{id}/image.
func (s *Server) ProductImageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := productID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		s.renderProduct(w, r, http.StatusBadRequest, id, nil, "The image is too large.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.renderProduct(w, r, http.StatusBadRequest, id, nil, "Choose an image to upload.")
		return
	}
	defer file.Close()

	thumb, err := imaging.MakeThumbnail(file, imaging.DefaultBox)
	if err != nil {
		msg := "The image could not be read."
		if errors.Is(err, imaging.ErrUnsupported) {
			msg = "Only JPEG, PNG, WebP and BMP images are accepted."
		}
		s.renderProduct(w, r, http.StatusBadRequest, id, nil, msg)
		return
	}

	err = store.SetProductImage(r.Context(), s.DB, id, thumb.Data, thumb.MIME)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to save image")
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user", claims.Username).Int64("product_id", id).Int("bytes", len(thumb.Data)).Msg("product image uploaded")
	http.Redirect(w, r, fmt.Sprintf("/products/%d?ok=Image+uploaded.", id), http.StatusSeeOther)
}

// ProductImageGet handles GET /products/{id}/image.
func (s *Server) ProductImageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetProductImage(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && data == nil) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to get image")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write image response")
	}
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
