package http

import (
	"net/http"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// Persona endpoints

// handleListModels godoc
// @Summary      List personas
// @Description  List every configured AI persona
// @Tags         Models
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Model
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /models [get]
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.modelService.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to list models")
		return
	}
	if models == nil {
		models = []*domain.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}

// handleGetModel godoc
// @Summary      Get persona
// @Description  Get a persona with its uploaded document records
// @Tags         Models
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Model ID"
// @Success      200  {object}  domain.ModelWithDocuments
// @Failure      404  {object}  ErrorResponse  "Model not found"
// @Router       /models/{id} [get]
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.modelService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get model")
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// handleCreateModel godoc
// @Summary      Create persona
// @Description  Create a persona and ingest its documents (admin only). An ingestion failure leaves the persona saved and is reported in ingest.error.
// @Tags         Models
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateModelRequest  true  "Persona"
// @Success      201      {object}  driving.ModelResult
// @Failure      400      {object}  ErrorResponse  "Invalid input or unsupported file type"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /models [post]
func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	req := driving.CreateModelRequest{Config: domain.DefaultModelConfig()}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.modelService.Create(r.Context(), GetAuthContext(r.Context()).UserID, req)
	if err != nil {
		s.writeServiceError(w, err, "failed to create model")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleUpdateModel godoc
// @Summary      Update persona
// @Description  Update a persona (admin only). Omitted fields are unchanged; a documents array replaces every document and re-ingests, and an empty array clears them.
// @Tags         Models
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Model ID"
// @Param        request  body      driving.UpdateModelRequest  true  "Fields to change"
// @Success      200      {object}  driving.ModelResult
// @Failure      400      {object}  ErrorResponse  "Invalid input or unsupported file type"
// @Failure      404      {object}  ErrorResponse  "Model not found"
// @Router       /models/{id} [put]
func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateModelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.modelService.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err, "failed to update model")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteModel godoc
// @Summary      Delete persona
// @Description  Delete a persona with its documents and vectors (admin only)
// @Tags         Models
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Model ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Model not found"
// @Router       /models/{id} [delete]
func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := s.modelService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "failed to delete model")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
