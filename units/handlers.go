package units

import (
	"net/http"
	"siena/utils"

	"github.com/julienschmidt/httprouter"
)

func ListUnits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	units, err := All(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to load units")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"units": units})
}

func GetUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	unit, err := ByID(r.Context(), ps.ByName("unitid"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "unit not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"unit": unit})
}
