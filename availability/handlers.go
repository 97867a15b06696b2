package availability

import (
	"net/http"
	"siena/units"
	"siena/utils"
	"sort"

	"github.com/julienschmidt/httprouter"
)

// GetBlockedDates returns the blocked days of one unit for calendar
// highlighting. A unit without feeds, or with unreachable feeds, reports no
// blocks.
func GetBlockedDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	unitID := ps.ByName("unitid")
	unit, err := units.ByID(r.Context(), unitID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "unit not found")
		return
	}

	blocked := BlockedFor(r.Context(), unit)
	dates := blocked.Dates()
	sort.Strings(dates)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"blockedDates": dates})
}
