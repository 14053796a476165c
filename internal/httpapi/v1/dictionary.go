package v1

import (
	"net/http"
	"strings"

	"github.com/tinoosan/bukubesar/internal/dictionary"
	"github.com/tinoosan/bukubesar/internal/ledger"
)

// GET /v1/dictionary/categories?report_type=
func (s *Server) getCategoriesDictionary(w http.ResponseWriter, r *http.Request) {
	var rt *ledger.ReportType
	if raw := strings.ToUpper(r.URL.Query().Get("report_type")); raw != "" {
		t := ledger.ReportType(raw)
		if !t.Valid() {
			writeErr(w, http.StatusBadRequest, "report_type must be NERACA or LABA_RUGI", "INVALID")
			return
		}
		rt = &t
	}
	toJSON(w, http.StatusOK, listResponse[dictionary.CategoryDef]{Items: dictionary.Categories(rt)})
}
