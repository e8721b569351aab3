package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/report"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

// supplierParam resolves a supplier from a path or query value, defaulting
// to the anchor supplier
func supplierParam(value string) (types.SupplierID, error) {
	if value == "" {
		return types.SupplierDroactiva, nil
	}
	return types.ParseSupplierID(value)
}

// ListCatalog returns a page of the primary catalog, or of the universal
// catalog when universal=true
func ListCatalog(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	universal := c.Query("universal") == "true"

	var page CatalogPage
	err = s.View(func(r *pipeline.Result) error {
		cat := r.Engine.Catalog()
		if universal {
			cat = r.Engine.Universal()
		}
		page = CatalogPage{
			Entries:   views(cat.Page(offset, limit)),
			Total:     cat.Len(),
			Offset:    offset,
			Limit:     limit,
			Universal: universal,
		}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProduct returns one product by barcode, looked up in the primary
// catalog first and then in the universal one
func GetProduct(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	barcode := fields.CleanBarcode(c.Param("barcode"))
	var (
		view  catalog.EntryView
		found bool
	)
	err := s.View(func(r *pipeline.Result) error {
		e, ok := r.Engine.Catalog().Get(barcode)
		if !ok {
			e, ok = r.Engine.Universal().Get(barcode)
		}
		if ok {
			view, found = e.View(), true
		}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Analytics returns the executive summary with gaps computed against the
// supplier query parameter
func Analytics(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	target, err := supplierParam(c.Query("supplier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var resp AnalyticsResponse
	err = s.View(func(r *pipeline.Result) error {
		resp = AnalyticsResponse{
			Executive: r.Engine.ExecutiveSummary(target),
			BaseVsNet: r.Engine.BaseVsNetBySupplier(),
		}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Gaps lists products the supplier has no stock of while others do
func Gaps(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	target, err := supplierParam(c.Param("supplier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var resp GapsResponse
	err = s.View(func(r *pipeline.Result) error {
		entries := views(r.Engine.GapProducts(target))
		resp = GapsResponse{
			Target:     target,
			Count:      len(entries),
			BySupplier: r.Engine.GapSummaryBySupplier(target),
			Units:      r.Engine.GapUnits(target),
			Entries:    entries,
		}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Search returns the products matching a molecule keyword, cheapest first
func Search(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	q := c.Query("q")
	var resp SearchResponse
	err := s.View(func(r *pipeline.Result) error {
		resp = SearchResponse{Query: q, Entries: views(r.Engine.CheapestByMolecule(q))}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export streams the XLSX report of the primary catalog
func Export(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	generated := time.Now()
	var buf bytes.Buffer
	err := s.View(func(r *pipeline.Result) error {
		return report.Write(&buf, r.Engine.Catalog(), r.Settings.ExchangeRate, generated)
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(generated)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
