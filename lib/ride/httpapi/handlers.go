package httpapi

import (
	"net/http"
	"strings"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/reqctx"
)

// --------------------------------------------------------------------------
// Drivers
// --------------------------------------------------------------------------

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	var d model.Driver
	if err := decode(w, r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateEntity(d.Name, d.Latitude, d.Longitude); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.coord.Drivers().Create(r.Context(), reqctx.FromContext(r.Context()).Region, d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type locationUpdate struct {
	ID        string   `json:"id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *Server) updateDriverLocation(w http.ResponseWriter, r *http.Request) {
	var u locationUpdate
	if err := decode(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireID(u.ID); err != nil {
		writeError(w, r, err)
		return
	}
	if u.Latitude == nil || u.Longitude == nil {
		writeError(w, r, model.Invalid("latitude and longitude are required"))
		return
	}
	if err := model.ValidateLocation(*u.Latitude, *u.Longitude); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.coord.Drivers().UpdateLocation(r.Context(), reqctx.FromContext(r.Context()).Region, u.ID, *u.Latitude, *u.Longitude)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) setDriverStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := model.ParseDriverStatus(body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.coord.Drivers().SetStatus(r.Context(), reqctx.FromContext(r.Context()).Region, r.PathValue("id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	drivers, err := s.coord.Drivers().List(r.Context(), rc.Region, rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) getDriver(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	d, err := s.coord.Drivers().Get(r.Context(), rc.Region, r.PathValue("id"), rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDriver(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Drivers().Delete(r.Context(), reqctx.FromContext(r.Context()).Region, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --------------------------------------------------------------------------
// Passengers
// --------------------------------------------------------------------------

func (s *Server) createPassenger(w http.ResponseWriter, r *http.Request) {
	var p model.Passenger
	if err := decode(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateEntity(p.Name, p.Latitude, p.Longitude); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.coord.Passengers().Create(r.Context(), reqctx.FromContext(r.Context()).Region, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listPassengers(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	passengers, err := s.coord.Passengers().List(r.Context(), rc.Region, rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, passengers)
}

func (s *Server) getPassenger(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	p, err := s.coord.Passengers().Get(r.Context(), rc.Region, r.PathValue("id"), rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePassenger(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Passengers().Delete(r.Context(), reqctx.FromContext(r.Context()).Region, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --------------------------------------------------------------------------
// Rides
// --------------------------------------------------------------------------

func (s *Server) bookRide(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		var body struct {
			PassengerID string `json:"passengerId"`
		}
		if err := decodeOptional(w, r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		id = body.PassengerID
	}
	if err := requireID(id); err != nil {
		writeError(w, r, err)
		return
	}

	ride, err := s.coord.BookRide(r.Context(), reqctx.FromContext(r.Context()).Region, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) endRide(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := requireID(id); err != nil {
		writeError(w, r, err)
		return
	}

	ride, err := s.coord.EndRide(r.Context(), reqctx.FromContext(r.Context()).Region, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) listRides(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	rides, err := s.coord.GetAllRides(r.Context(), rc.Region, rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}

func (s *Server) getRide(w http.ResponseWriter, r *http.Request) {
	rc := reqctx.FromContext(r.Context())
	ride, err := s.coord.GetRideByID(r.Context(), rc.Region, r.PathValue("id"), rc.Consistency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func validateEntity(name string, latitude, longitude float64) error {
	if strings.TrimSpace(name) == "" {
		return model.Invalid("name must not be empty")
	}
	return model.ValidateLocation(latitude, longitude)
}
