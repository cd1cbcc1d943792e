/*
webservice.go HTTP intent API. Every route maps onto one editor intent and answers with the
intent's Result as JSON; /ws streams editor status over a websocket.
*/

package webservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/ohowland/gridflow/internal/pkg/builder"
	"github.com/ohowland/gridflow/internal/pkg/component"
	"github.com/ohowland/gridflow/internal/pkg/editor"
	"github.com/ohowland/gridflow/internal/pkg/geometry"
	"github.com/ohowland/gridflow/internal/pkg/grid"
	"github.com/ohowland/gridflow/internal/pkg/logger"
	"github.com/ohowland/gridflow/internal/pkg/msg"
	"go.uber.org/zap"
)

// Config of the HTTP server
type Config struct {
	Enabled bool   `json:"Enabled" yaml:"enabled"`
	Addr    string `json:"Addr" yaml:"addr"`
}

const contentType = "application/json; charset=UTF-8"

// PlaceRequest places a component
type PlaceRequest struct {
	Kind     component.Kind `json:"kind"`
	Position geometry.Point `json:"position"`
}

// SpanRequest carries the two corners of a wire or an association
type SpanRequest struct {
	Start   geometry.Point `json:"start"`
	End     geometry.Point `json:"end"`
	Connect bool           `json:"connect"`
}

// PointRequest carries a target position
type PointRequest struct {
	Position geometry.Point `json:"position"`
}

// NameRequest renames a component
type NameRequest struct {
	Name string `json:"name"`
}

// LabelRequest labels an association
type LabelRequest struct {
	Label    string `json:"label"`
	SubLabel string `json:"subLabel"`
	Acronym  string `json:"acronym"`
}

// NameSideRequest puts a component label right or left of its icon
type NameSideRequest struct {
	Right bool `json:"right"`
}

// DefaultStateRequest changes the normal state of a closeable device
type DefaultStateRequest struct {
	Closed bool `json:"closed"`
}

// LoadTextRequest sets the texts of a connected load annotation
type LoadTextRequest struct {
	Buildings       string `json:"buildings"`
	TransformerSize string `json:"transformerSize"`
	Warnings        string `json:"warnings"`
}

// TandemRequest links two breakers
type TandemRequest struct {
	First  uuid.UUID `json:"first"`
	Second uuid.UUID `json:"second"`
}

// SessionRequest changes build settings. Absent fields are left alone.
type SessionRequest struct {
	Rotation     *float64        `json:"rotation,omitempty"`
	DefaultState *bool           `json:"defaultState,omitempty"`
	Tool         *component.Kind `json:"tool,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the intent API of one editor
type Server struct {
	editor   *editor.Editor
	config   Config
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// New returns a server for e
func New(cfg Config, e *editor.Editor) *Server {
	return &Server{
		editor: e,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.For(logger.Webservice),
	}
}

func (s *Server) makeRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", BaseHandler)
	r.HandleFunc("/status", s.StatusHandler).Methods("GET")
	r.HandleFunc("/ws", s.StreamHandler).Methods("GET")

	r.HandleFunc("/components", s.PlaceHandler).Methods("POST")
	r.HandleFunc("/components/{id}", s.ComponentHandler).Methods("GET", "DELETE")
	r.HandleFunc("/components/{id}/toggle", s.ToggleHandler).Methods("POST")
	r.HandleFunc("/components/{id}/lock", s.LockHandler).Methods("POST")
	r.HandleFunc("/components/{id}/name", s.RenameHandler).Methods("PUT")
	r.HandleFunc("/components/{id}/loadtext", s.LoadTextHandler).Methods("PUT")
	r.HandleFunc("/components/{id}/nameside", s.NameSideHandler).Methods("PUT")
	r.HandleFunc("/components/{id}/defaultstate", s.DefaultStateHandler).Methods("PUT")
	r.HandleFunc("/components/{id}/tandem", s.ClearTandemHandler).Methods("DELETE")
	r.HandleFunc("/components/{id}/drag", s.DragHandler).Methods("POST")
	r.HandleFunc("/components/{id}/copy", s.CopyHandler).Methods("POST")
	r.HandleFunc("/paste", s.PasteHandler).Methods("POST")
	r.HandleFunc("/wires", s.WireHandler).Methods("POST")
	r.HandleFunc("/associations", s.AssociationHandler).Methods("POST")
	r.HandleFunc("/associations/{ordinal}", s.LabelHandler).Methods("PUT")
	r.HandleFunc("/tandem", s.TandemHandler).Methods("POST")

	r.HandleFunc("/undo", s.UndoHandler).Methods("POST")
	r.HandleFunc("/redo", s.RedoHandler).Methods("POST")
	r.HandleFunc("/session", s.SessionHandler).Methods("PUT")
	r.HandleFunc("/session/rotate", s.RotateHandler).Methods("POST")
	r.HandleFunc("/document", s.DocumentHandler).Methods("GET", "PUT")
	r.HandleFunc("/document/save", s.SaveHandler).Methods("POST")
	return r
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.config.Addr, Handler: s.makeRouter()}
	errs := make(chan error, 1)
	go func() {
		s.log.Infof("Starting Server on %v", s.config.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// BaseHandler answers liveness probes
func BaseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnf("malformed JSON: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusOf(err), ErrorResponse{Error: err.Error()})
}

func (s *Server) writeResult(w http.ResponseWriter, r editor.Result, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, r)
}

// statusOf maps intent errors onto HTTP status codes
func statusOf(err error) int {
	var dangling *grid.DanglingReferenceError
	switch {
	case errors.Is(err, editor.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrPlacementConflict), errors.Is(err, builder.ErrAmbiguousWireGeometry):
		return http.StatusConflict
	case errors.As(err, &dangling):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

// StatusHandler returns the editor status
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.editor.Status())
}

// ComponentHandler reads or deletes one component
func (s *Server) ComponentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch r.Method {
	case "GET":
		icon, err := s.editor.Component(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, icon)
	case "DELETE":
		s.writeJSON(w, http.StatusOK, s.editor.Delete(id))
	}
}

// PlaceHandler places a component
func (s *Server) PlaceHandler(w http.ResponseWriter, r *http.Request) {
	req := PlaceRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Place(req.Kind, req.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// WireHandler draws a wire
func (s *Server) WireHandler(w http.ResponseWriter, r *http.Request) {
	req := SpanRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.PlaceWire(req.Start, req.End, req.Connect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// AssociationHandler draws an association box
func (s *Server) AssociationHandler(w http.ResponseWriter, r *http.Request) {
	req := SpanRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.PlaceAssociation(req.Start, req.End)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// LabelHandler labels an association
func (s *Server) LabelHandler(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(mux.Vars(r)["ordinal"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := LabelRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.LabelAssociation(ordinal, req.Label, req.SubLabel, req.Acronym)
	s.writeResult(w, res, err)
}

// ToggleHandler toggles a component
func (s *Server) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Toggle(id)
	s.writeResult(w, res, err)
}

// LockHandler locks or unlocks a component
func (s *Server) LockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Lock(id)
	s.writeResult(w, res, err)
}

// RenameHandler renames a component
func (s *Server) RenameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := NameRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Rename(id, req.Name)
	s.writeResult(w, res, err)
}

// NameSideHandler moves a component label to the right or left
func (s *Server) NameSideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := NameSideRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.SetNameRight(id, req.Right)
	s.writeResult(w, res, err)
}

// DefaultStateHandler changes the normal state of a closeable device
func (s *Server) DefaultStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := DefaultStateRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.SetClosedByDefault(id, req.Closed)
	s.writeResult(w, res, err)
}

// LoadTextHandler sets connected load texts
func (s *Server) LoadTextHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := LoadTextRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.SetLoadText(id, req.Buildings, req.TransformerSize, req.Warnings)
	s.writeResult(w, res, err)
}

// DragHandler moves a component
func (s *Server) DragHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := PointRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Drag(id, req.Position)
	s.writeResult(w, res, err)
}

// CopyHandler copies a component to the clipboard
func (s *Server) CopyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.editor.Copy(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, struct{}{})
}

// PasteHandler pastes the clipboard component
func (s *Server) PasteHandler(w http.ResponseWriter, r *http.Request) {
	req := PointRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.Paste(req.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// TandemHandler links two breakers
func (s *Server) TandemHandler(w http.ResponseWriter, r *http.Request) {
	req := TandemRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.SetTandem(req.First, req.Second)
	s.writeResult(w, res, err)
}

// ClearTandemHandler unlinks a breaker from its tandem partner
func (s *Server) ClearTandemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.editor.ClearTandem(id)
	s.writeResult(w, res, err)
}

// UndoHandler reverts the last intent
func (s *Server) UndoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Undo()
	s.writeResult(w, res, err)
}

// RedoHandler reapplies the last undone intent
func (s *Server) RedoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.editor.Redo()
	s.writeResult(w, res, err)
}

// SessionHandler changes the build settings
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	req := SessionRequest{}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Tool != nil {
		if err := s.editor.SetTool(*req.Tool); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Rotation != nil {
		if err := s.editor.SetRotation(*req.Rotation); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.DefaultState != nil {
		s.editor.SetDefaultState(*req.DefaultState)
	}
	s.writeJSON(w, http.StatusOK, s.editor.Status())
}

// RotateHandler advances the placement rotation
func (s *Server) RotateHandler(w http.ResponseWriter, r *http.Request) {
	s.editor.Rotate()
	s.writeJSON(w, http.StatusOK, s.editor.Status())
}

// DocumentHandler reads or replaces the whole document
func (s *Server) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.writeJSON(w, http.StatusOK, s.editor.Snapshot())
	case "PUT":
		doc := grid.GridMemento{}
		if err := decode(r, &doc); err != nil {
			s.writeError(w, err)
			return
		}
		res, err := s.editor.Load(doc)
		s.writeResult(w, res, err)
	}
}

// SaveHandler broadcasts the document to the configured stores
func (s *Server) SaveHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.editor.Save())
}

// StreamHandler upgrades to a websocket and pushes the editor status after every committed
// intent, starting with the current one.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	pid := uuid.New()
	ch, err := s.editor.Subscribe(pid, msg.Status)
	if err != nil {
		s.log.Warnf("subscribe: %v", err)
		return
	}
	defer s.editor.Unsubscribe(pid)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.editor.Status()); err != nil {
		return
	}
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(m.Payload()); err != nil {
				s.log.Debugf("websocket write: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
