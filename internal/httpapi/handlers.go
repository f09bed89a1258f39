package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/ellie/internal/inventory"
)

// checkoutRequest is the body of checkout, checkin and transfer.
type checkoutRequest struct {
	EquipmentID string `json:"equipment_id"`
	PersonID    string `json:"person_id"`
}

func (h *handler) listEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListEquipment(r.Context(), inventory.EquipmentFilter{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) getEquipment(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEquipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) addEquipment(w http.ResponseWriter, r *http.Request) {
	var in inventory.EquipmentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.svc.AddEquipment(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) updateEquipment(w http.ResponseWriter, r *http.Request) {
	var patch inventory.EquipmentPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.svc.UpdateEquipment(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) deleteEquipment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEquipment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) listPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.svc.ListPeople(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *handler) getPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPerson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) addPerson(w http.ResponseWriter, r *http.Request) {
	var in inventory.PersonInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.AddPerson(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) updatePerson(w http.ResponseWriter, r *http.Request) {
	var patch inventory.PersonPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.UpdatePerson(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (h *handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.Checkout(r.Context(), req.EquipmentID, req.PersonID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) checkin(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.svc.Checkin(r.Context(), req.EquipmentID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "checked_in"})
}

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.Transfer(r.Context(), req.EquipmentID, req.PersonID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) overdue(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Overdue(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
