package api

import (
	"net/http"
	"strconv"

	"github.com/lookbusy1344/alya-vm/debugger"
	"github.com/lookbusy1344/alya-vm/loader"
	"github.com/lookbusy1344/alya-vm/tools"
	"github.com/lookbusy1344/alya-vm/vm"
)

// handleCreateSession handles POST /api/v1/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	program, err := loader.Load(req.Binary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to load program: "+err.Error())
		return
	}

	session, err := s.sessions.CreateSession(program, req.MemorySize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// handleListSessions handles GET /api/v1/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": s.sessions.ListSessions(),
	})
}

// handleGetSessionStatus handles GET /api/v1/sessions/{id}.
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID: session.ID,
		PC:        session.VM.PC,
		Halted:    session.VM.Halted,
	})
}

// handleDestroySession handles DELETE /api/v1/sessions/{id}.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleStep handles POST /api/v1/sessions/{id}/step.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runControl(w, r, sessionID, (*debugger.Debugger).Step)
}

// handleNext handles POST /api/v1/sessions/{id}/next.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runControl(w, r, sessionID, (*debugger.Debugger).Next)
}

// handleContinue handles POST /api/v1/sessions/{id}/continue.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request, sessionID string) {
	s.runControl(w, r, sessionID, (*debugger.Debugger).Continue)
}

// runControl runs a step/next/continue control function against the
// session's debugger, broadcasts the outcome, and writes the response.
func (s *Server) runControl(w http.ResponseWriter, r *http.Request, sessionID string, fn func(*debugger.Debugger) (bool, string, error)) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	stopped, reason, err := fn(session.Debugger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := StepResponse{
		Stopped: stopped,
		Reason:  reason,
		PC:      session.VM.PC,
		Halted:  session.VM.Halted,
	}

	if s.broadcaster != nil {
		event := "step"
		if session.VM.Halted {
			event = "halted"
		} else if stopped {
			event = "stopped"
		}
		s.broadcaster.BroadcastExecutionEvent(sessionID, event, map[string]interface{}{
			"pc":     resp.PC,
			"reason": reason,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetRegisters handles GET /api/v1/sessions/{id}/registers.
func (s *Server) handleGetRegisters(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	regs := make(map[string]uint64, vm.NumRegisters)
	for reg := vm.R0; reg <= vm.FL; reg++ {
		regs[reg.String()] = session.VM.Reg(reg)
	}

	flags := session.VM.Flags
	writeJSON(w, http.StatusOK, RegistersResponse{
		Registers: regs,
		PC:        session.VM.PC,
		Flags: FlagsResponse{
			N: flags.N,
			Z: flags.Z,
			C: flags.C,
			V: flags.V,
		},
	})
}

// handleGetMemory handles GET /api/v1/sessions/{id}/memory?address=&length=.
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	address, err := parseHexOrDec(r.URL.Query().Get("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	length, err := parseHexOrDec(r.URL.Query().Get("length"))
	if err != nil || length == 0 {
		writeError(w, http.StatusBadRequest, "invalid length")
		return
	}

	session.Lock()
	defer session.Unlock()

	data := make([]byte, 0, length)
	for i := uint64(0); i < length; i++ {
		b, err := session.VM.Memory.ReadByte(address + i)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		data = append(data, b)
	}

	writeJSON(w, http.StatusOK, MemoryResponse{Address: address, Data: data})
}

// handleGetDisassembly handles GET /api/v1/sessions/{id}/disassembly.
func (s *Server) handleGetDisassembly(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	writeJSON(w, http.StatusOK, DisassemblyResponse{Lines: tools.Disassemble(session.Program)})
}

// handleBreakpoint handles POST /api/v1/sessions/{id}/breakpoints.
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	bp := session.Debugger.Breakpoints.AddBreakpoint(req.Address, req.Temporary)
	writeJSON(w, http.StatusCreated, toBreakpointResponse(bp))
}

// handleListBreakpoints handles GET /api/v1/sessions/{id}/breakpoints.
func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	all := session.Debugger.Breakpoints.GetAllBreakpoints()
	resp := BreakpointsResponse{Breakpoints: make([]BreakpointResponse, 0, len(all))}
	for _, bp := range all {
		resp.Breakpoints = append(resp.Breakpoints, toBreakpointResponse(bp))
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteBreakpoint handles DELETE /api/v1/sessions/{id}/breakpoints/{bpID}.
func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string, breakpointID int) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session.Lock()
	defer session.Unlock()

	if err := session.Debugger.Breakpoints.DeleteBreakpoint(breakpointID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func toBreakpointResponse(bp *debugger.Breakpoint) BreakpointResponse {
	return BreakpointResponse{
		ID:        bp.ID,
		Address:   bp.Address,
		Enabled:   bp.Enabled,
		Temporary: bp.Temporary,
		HitCount:  bp.HitCount,
	}
}

// parseHexOrDec parses a decimal or 0x-prefixed hex string.
func parseHexOrDec(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
