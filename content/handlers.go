package content

import (
	"net/http"
	"siena/utils"

	"github.com/julienschmidt/httprouter"
)

// GetContent proxies the page bundle to the frontend.
func GetContent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := r.URL.Query().Get("page")
	if page == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing page parameter")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, GetPage(r.Context(), page))
}
