package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/agentsim/internal/agent"
	"github.com/nidhogg/agentsim/internal/behavior"
	"github.com/nidhogg/agentsim/internal/fsm"
	"github.com/nidhogg/agentsim/internal/sim"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	scheduler *sim.Scheduler
	trees     *behavior.Engine
	machines  *fsm.Engine
	logger    *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(scheduler *sim.Scheduler, trees *behavior.Engine, machines *fsm.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		trees:     trees,
		machines:  machines,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/agents", h.listAgents)
		r.Post("/agents", h.createAgent)
		r.Get("/agents/{id}", h.getAgent)
		r.Delete("/agents/{id}", h.removeAgent)
		r.Get("/agents/{id}/memory", h.getAgentMemory)
		r.Get("/agents/{id}/state", h.getAgentState)

		r.Post("/messages", h.sendMessage)

		r.Get("/sim/stats", h.simStats)
		r.Post("/sim/start", h.startSim)
		r.Post("/sim/stop", h.stopSim)
		r.Post("/sim/tick", h.stepSim)
	})

	return r
}

// createAgentRequest is the wire form of an agent spec. Tree and machine
// definitions are plain data; action/condition references resolve against
// handlers registered in-process.
type createAgentRequest struct {
	ID       string                  `json:"id,omitempty"`
	Name     string                  `json:"name"`
	Type     agent.Type              `json:"type"`
	Position agent.Vector3           `json:"position"`
	Sensors  []*agent.Sensor         `json:"sensors,omitempty"`
	Goals    []*agent.Goal           `json:"goals,omitempty"`
	Brain    agent.BrainKind         `json:"brain"`
	Network  *agent.NeuralNetwork    `json:"network,omitempty"`
	Decision *agent.DecisionNetwork  `json:"decision,omitempty"`
	Tree     *behavior.Node          `json:"tree,omitempty"`
	Machine  *machineRequest         `json:"machine,omitempty"`
}

type machineRequest struct {
	Initial     string            `json:"initial"`
	States      []*fsm.State      `json:"states,omitempty"`
	Transitions []*fsm.Transition `json:"transitions,omitempty"`
	Reference   bool              `json:"reference,omitempty"`
}

// agentView is the read-side representation of an agent.
type agentView struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Type       agent.Type           `json:"type"`
	Position   agent.Vector3        `json:"position"`
	State      agent.LifecycleState `json:"state"`
	Brain      agent.BrainKind      `json:"brain"`
	Goals      []*agent.Goal        `json:"goals,omitempty"`
	ShortTerm  int                  `json:"short_term"`
	LongTerm   int                  `json:"long_term"`
	Episodic   int                  `json:"episodic"`
	LastUpdate string               `json:"last_update"`
}

func viewOf(a *agent.Agent) agentView {
	short, long, episodic := a.Memory.Sizes()
	v := agentView{
		ID:         a.ID,
		Name:       a.Name,
		Type:       a.Type,
		Position:   a.Position,
		State:      a.State,
		Goals:      a.Goals,
		ShortTerm:  short,
		LongTerm:   long,
		Episodic:   episodic,
		LastUpdate: a.LastUpdate.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if a.Brain != nil {
		v.Brain = a.Brain.Kind
	}
	return v
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := h.scheduler.Agents()
	views := make([]agentView, len(agents))
	for i, a := range agents {
		views[i] = viewOf(a)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	spec := sim.AgentSpec{
		ID:        req.ID,
		Name:      req.Name,
		Type:      req.Type,
		Position:  req.Position,
		Sensors:   req.Sensors,
		Goals:     req.Goals,
		BrainKind: req.Brain,
		Network:   req.Network,
		Decision:  req.Decision,
		TreeRoot:  req.Tree,
	}
	if req.Machine != nil {
		spec.InitialState = req.Machine.Initial
		spec.ReferenceMachine = req.Machine.Reference
	}

	a, err := h.scheduler.CreateAgent(spec)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	// Custom machine definitions are applied after registration.
	if req.Machine != nil && !req.Machine.Reference {
		for _, s := range req.Machine.States {
			h.machines.AddState(a.ID, s)
		}
		for _, t := range req.Machine.Transitions {
			h.machines.AddTransition(a.ID, t)
		}
	}

	writeJSON(w, http.StatusCreated, viewOf(a))
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := h.scheduler.Agent(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(a))
}

func (h *Handler) removeAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.scheduler.RemoveAgent(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (h *Handler) getAgentMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := h.scheduler.Agent(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	short, long, episodic := a.Memory.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"short_term": short,
		"long_term":  long,
		"episodic":   episodic,
	})
}

func (h *Handler) getAgentState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := h.scheduler.Agent(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}

	resp := map[string]interface{}{"lifecycle": a.State}
	if current, ok := h.machines.CurrentState(id); ok {
		resp["machine_state"] = current
	}
	if tree, ok := h.trees.Tree(id); ok {
		resp["tree_status"] = tree.Status.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var msg sim.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if msg.Receiver == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "receiver is required"})
		return
	}
	h.scheduler.SendMessage(&msg)
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": msg.ID})
}

func (h *Handler) simStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Stats())
}

func (h *Handler) startSim(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Start()
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (h *Handler) stopSim(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (h *Handler) stepSim(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Tick()
	writeJSON(w, http.StatusOK, h.scheduler.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
