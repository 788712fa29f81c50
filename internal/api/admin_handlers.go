package api

import (
	"context"
	"net/http"

	"github.com/viepratiqueservice-arch/Visela/internal/api/middleware"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
)

// Catalog

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts())
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.cmdHandler.CreateProduct(r.Context(), command.CreateProduct{Details: req.details(), Stock: req.Stock})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cmd := command.UpdateProduct{ProductID: r.PathValue("id"), Details: req.details()}
	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.DeleteProduct(r.Context(), command.DeleteProduct{ProductID: r.PathValue("id")}); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := h.cmdHandler.SetStock(r.Context(), command.SetStock{
		ProductID: r.PathValue("id"),
		Stock:     req.Stock,
		AdminID:   middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.cmdHandler.CreateCategory(r.Context(), command.CreateCategory{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cmd := command.UpdateCategory{CategoryID: r.PathValue("id"), Name: req.Name, Icon: req.Icon, Color: req.Color}
	if err := h.cmdHandler.UpdateCategory(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category updated"})
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.DeleteCategory(r.Context(), command.DeleteCategory{CategoryID: r.PathValue("id")}); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Logistics

func (h *Handlers) AddCommune(w http.ResponseWriter, r *http.Request) {
	var req CommuneRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.cmdHandler.AddCommune(r.Context(), command.AddCommune{Name: req.Name})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) AddZone(w http.ResponseWriter, r *http.Request) {
	var req ZoneRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	z, err := h.cmdHandler.AddZone(r.Context(), command.AddZone{CommuneID: req.CommuneID, Name: req.Name})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, z)
}

func (h *Handlers) AddSector(w http.ResponseWriter, r *http.Request) {
	var req SectorRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.cmdHandler.AddSector(r.Context(), command.AddSector{ZoneID: req.ZoneID, Name: req.Name})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *Handlers) RemoveCommune(w http.ResponseWriter, r *http.Request) {
	h.removeLogistics(w, r, h.cmdHandler.RemoveCommune)
}

func (h *Handlers) RemoveZone(w http.ResponseWriter, r *http.Request) {
	h.removeLogistics(w, r, h.cmdHandler.RemoveZone)
}

func (h *Handlers) RemoveSector(w http.ResponseWriter, r *http.Request) {
	h.removeLogistics(w, r, h.cmdHandler.RemoveSector)
}

func (h *Handlers) removeLogistics(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, id string) error) {
	if err := remove(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orders

// AdminListOrders lists every order, or only the undelivered ones with ?open=true.
func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("open") == "true" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListOpenOrders())
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListAllOrders())
}

func (h *Handlers) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderStatusRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.cmdHandler.AdvanceOrder(r.Context(), command.AdvanceOrder{
		OrderID: r.PathValue("id"),
		Status:  req.Status,
		AdminID: middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Reloads

func (h *Handlers) AdminListReloads(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListAllReloads())
}

func (h *Handlers) ApproveReload(w http.ResponseWriter, r *http.Request) {
	rl, err := h.cmdHandler.ApproveReload(r.Context(), command.ApproveReload{
		ReloadID: r.PathValue("id"),
		AdminID:  middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rl)
}

func (h *Handlers) RejectReload(w http.ResponseWriter, r *http.Request) {
	var req RejectReloadRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rl, err := h.cmdHandler.RejectReload(r.Context(), command.RejectReload{
		ReloadID: r.PathValue("id"),
		AdminID:  middleware.GetUserID(r.Context()),
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rl)
}

// Overview

func (h *Handlers) AdminListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.queryHandler.ListProfiles()
	out := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = toProfile(p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.cmdHandler.Settings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": cfg, "values": cfg.Values()})
}

func (h *Handlers) AdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cfg, err := h.cmdHandler.UpdateSettings(r.Context(), command.UpdateSettings{
		Values:  req.Values,
		AdminID: middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": cfg, "values": cfg.Values()})
}

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetDashboard())
}
