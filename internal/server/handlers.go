package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/mcp-discovery/internal/ingestion"
	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// multipartMemory is how much of an upload is held in memory before spilling to disk
const multipartMemory = 8 << 20

// handleDiscover accepts a multipart form with a prompt and optional project files
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	input, synthesize, err := s.parseDiscoverForm(w, r)
	if err != nil {
		s.failRequest(w, err)
		return
	}

	result, err := s.pipeline.Run(r.Context(), input, pipeline.Options{Synthesize: synthesize})
	if err != nil {
		s.failRequest(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result.Response())
}

// handleDiscoverJSON accepts the JSON request shape with inline project context
func (s *Server) handleDiscoverJSON(w http.ResponseWriter, r *http.Request) {
	pc, synthesize, err := s.decodeDiscoveryRequest(w, r)
	if err != nil {
		s.failRequest(w, err)
		return
	}

	result, err := s.pipeline.Discover(r.Context(), pc, pipeline.Options{Synthesize: synthesize})
	if err != nil {
		s.failRequest(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result.Response())
}

// handleDiscoverStream runs a JSON discovery request and reports each stage over SSE
func (s *Server) handleDiscoverStream(w http.ResponseWriter, r *http.Request) {
	pc, synthesize, err := s.decodeDiscoveryRequest(w, r)
	if err != nil {
		s.failRequest(w, err)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := pipeline.Options{
		Synthesize: synthesize,
		OnProgress: func(event pipeline.ProgressEvent) {
			if err := stream.send(EventStep, event); err != nil {
				s.logger.Debug("failed to write progress event", "step", event.Step, "error", err)
			}
		},
	}

	result, err := s.pipeline.Discover(r.Context(), pc, opts)
	if err != nil {
		s.logger.Warn("streamed discovery failed", "error", err)
		if werr := stream.fail(publicMessage(err)); werr == nil {
			_ = stream.done("", "failed")
		}
		return
	}

	if err := stream.send(EventResult, result.Response()); err != nil {
		s.logger.Debug("failed to write result event", "error", err)
		return
	}
	if err := stream.done(result.RequestID, "completed"); err != nil {
		s.logger.Debug("failed to write complete event", "error", err)
	}
}

// handleProjectContext acknowledges a project context payload without running discovery
func (s *Server) handleProjectContext(w http.ResponseWriter, r *http.Request) {
	var payload types.ProjectContextPayload
	if err := decodeJSON(w, r, s.maxUploadBytes, &payload); err != nil {
		s.failRequest(w, err)
		return
	}
	if err := payload.Validate(); err != nil {
		s.failRequest(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Received project context",
		"prompt":  payload.UserPrompt,
	})
}

// failRequest maps err to a status and writes the error body
func (s *Server) failRequest(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.errorResponse(w, status, publicMessage(err))
}

// decodeDiscoveryRequest reads and validates a DiscoveryRequest and builds its project context
func (s *Server) decodeDiscoveryRequest(w http.ResponseWriter, r *http.Request) (*types.ProjectContext, bool, error) {
	var req types.DiscoveryRequest
	if err := decodeJSON(w, r, s.maxUploadBytes, &req); err != nil {
		return nil, false, err
	}
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	pc, err := ingestion.FromPayload(req.Prompt, req.Context)
	if err != nil {
		return nil, false, err
	}

	synthesize := s.synthesize
	if req.Synthesize != nil {
		synthesize = *req.Synthesize
	}
	return pc, synthesize, nil
}

// parseDiscoverForm reads the prompt, the synthesize flag and every "files" part.
// A urlencoded body without files is accepted as well.
func (s *Server) parseDiscoverForm(w http.ResponseWriter, r *http.Request) (pipeline.Input, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Input{}, false, err
		}
		return pipeline.Input{}, false, &RequestError{Message: "invalid form body", Cause: err}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck
	}

	synthesize := s.synthesize
	if raw := strings.TrimSpace(r.FormValue("synthesize")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return pipeline.Input{}, false, &types.InvalidInputError{Field: "synthesize", Message: "must be a boolean"}
		}
		synthesize = parsed
	}

	input := pipeline.Input{Prompt: r.FormValue("prompt")}
	if r.MultipartForm == nil {
		return input, synthesize, nil
	}

	for _, header := range r.MultipartForm.File["files"] {
		file, err := readUpload(header)
		if err != nil {
			return pipeline.Input{}, false, err
		}
		input.Files = append(input.Files, file)
	}

	return input, synthesize, nil
}

// readUpload decodes one uploaded part as UTF-8 text
func readUpload(header *multipart.FileHeader) (types.File, error) {
	f, err := header.Open()
	if err != nil {
		return types.File{}, &RequestError{Message: fmt.Sprintf("failed to open upload %q", header.Filename), Cause: err}
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return types.File{}, &RequestError{Message: fmt.Sprintf("failed to read upload %q", header.Filename), Cause: err}
	}

	content, err := ingestion.DecodeText(header.Filename, data)
	if err != nil {
		return types.File{}, err
	}
	return types.File{Name: header.Filename, Content: content, Kind: types.KindAuto}, nil
}

// decodeJSON decodes a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &RequestError{Message: "invalid request body", Cause: err}
	}
	return nil
}
